package waitlist

import (
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/pkg/validation"
)

type SignupRequest struct {
	Email                      string `json:"email" binding:"required,email,max=255,notdisposable"`
	FirstName                  string `json:"firstName" binding:"required,trimmedmin=2,max=100"`
	LastName                   string `json:"lastName" binding:"required,trimmedmin=2,max=100"`
	IsConstructionProfessional bool   `json:"isConstructionProfessional"`
	Profession                 string `json:"profession" binding:"required_if=IsConstructionProfessional true,omitempty,profession"`
	ProfessionOther            string `json:"professionOther" binding:"required_if=Profession other,max=255"`
	NonProfessionalRole        string `json:"nonProfessionalRole" binding:"max=255"`
	InterestReason             string `json:"interestReason" binding:"max=2000"`
}

type CheckEmailRequest struct {
	Email string `json:"email" binding:"required,email,max=255,notdisposable"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// SignupResponse is written as-is; Created selects 201 over 200.
type SignupResponse struct {
	Message             string `json:"message"`
	Success             bool   `json:"success,omitempty"`
	PendingVerification bool   `json:"pendingVerification,omitempty"`
	AlreadyExists       bool   `json:"alreadyExists,omitempty"`
	Verified            *bool  `json:"verified,omitempty"`

	Created bool `json:"-"`
}

type CheckEmailResponse struct {
	Valid    bool   `json:"valid"`
	Exists   *bool  `json:"exists,omitempty"`
	Verified *bool  `json:"verified,omitempty"`
	Message  string `json:"message"`
}

type ResendVerificationResponse struct {
	Message  string `json:"message"`
	Success  bool   `json:"success,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// ========================================
// Normalization
// ========================================

// Normalize trims every field, lowercases the email and drops the profile
// fields that do not apply to the chosen branch.
func (r *SignupRequest) Normalize() {
	r.Email = validation.NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Profession = strings.TrimSpace(r.Profession)
	r.ProfessionOther = strings.TrimSpace(r.ProfessionOther)
	r.NonProfessionalRole = strings.TrimSpace(r.NonProfessionalRole)
	r.InterestReason = strings.TrimSpace(r.InterestReason)

	if r.IsConstructionProfessional {
		r.NonProfessionalRole = ""
		if r.Profession != validation.ProfessionOther {
			r.ProfessionOther = ""
		}
	} else {
		r.Profession = ""
		r.ProfessionOther = ""
	}
}

// ========================================
// Mappers
// ========================================

// ToWaitlistEntryModel maps a normalized request to an unverified entry
// carrying a fresh verification cycle.
func ToWaitlistEntryModel(req *SignupRequest, token string, expiry time.Time) *models.WaitlistEntry {
	if req == nil {
		return nil
	}

	return &models.WaitlistEntry{
		Email:                      req.Email,
		FirstName:                  req.FirstName,
		LastName:                   req.LastName,
		IsConstructionProfessional: req.IsConstructionProfessional,
		Profession:                 optionalString(req.Profession),
		ProfessionOther:            optionalString(req.ProfessionOther),
		NonProfessionalRole:        optionalString(req.NonProfessionalRole),
		InterestReason:             optionalString(req.InterestReason),
		IsVerified:                 false,
		VerificationToken:          &token,
		VerificationTokenExpiry:    &expiry,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}
