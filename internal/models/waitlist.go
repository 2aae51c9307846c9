package models

import (
	"time"

	"gorm.io/gorm"
)

// WaitlistEntry is one prospective user, unique by lowercased email.
// VerificationToken and VerificationTokenExpiry are set and cleared together.
type WaitlistEntry struct {
	gorm.Model
	Email                      string  `gorm:"not null;uniqueIndex;size:255"`
	FirstName                  string  `gorm:"not null;size:100"`
	LastName                   string  `gorm:"not null;size:100"`
	IsConstructionProfessional bool    `gorm:"not null;default:false"`
	Profession                 *string `gorm:"size:64"`
	ProfessionOther            *string `gorm:"size:255"`
	NonProfessionalRole        *string `gorm:"size:255"`
	InterestReason             *string `gorm:"type:text"`
	IsVerified                 bool    `gorm:"not null;default:false;index"`
	VerificationToken          *string `gorm:"size:128;index;check:chk_waitlist_entries_token_pair,(verification_token IS NULL) = (verification_token_expiry IS NULL)"`
	VerificationTokenExpiry    *time.Time
	VerifiedAt                 *time.Time
}

// HasPendingVerification reports whether a token is outstanding, expired or not.
func (w *WaitlistEntry) HasPendingVerification() bool {
	return !w.IsVerified && w.VerificationToken != nil && w.VerificationTokenExpiry != nil
}

// TokenExpired reports whether the token expiry is at or before now.
func (w *WaitlistEntry) TokenExpired(now time.Time) bool {
	return w.VerificationTokenExpiry == nil || !now.Before(*w.VerificationTokenExpiry)
}
