package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/carbiooai/carbioo-api/internal/models"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistRepository interface {
	// CreateEntry persists a new entry. A duplicate email yields a conflict error.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error
	// FindEntryByEmail looks up an entry by its normalized email.
	FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	// FindEntryByToken looks up an entry by verification token regardless of expiry.
	FindEntryByToken(ctx context.Context, token string) (*models.WaitlistEntry, error)
	// RenewVerification opens a new verification cycle on an unverified entry.
	// It reports false when the entry was verified in the meantime.
	RenewVerification(ctx context.Context, id uint, firstName, lastName, token string, expiry time.Time) (bool, error)
	// MarkVerified flips the entry to verified and clears its token, but only
	// while it still holds token and is unverified. It reports whether it did.
	MarkVerified(ctx context.Context, id uint, token string, verifiedAt time.Time) (bool, error)
	// DeleteEntry permanently removes an entry. Only used to roll back a signup.
	DeleteEntry(ctx context.Context, id uint) error
	// CountVerifiedEntries counts verified entries.
	CountVerifiedEntries(ctx context.Context) (int64, error)
	// ClearExpiredTokens drops token and expiry from unverified entries whose
	// token expired before cutoff.
	ClearExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.NewConflictError("waitlist entry with this email already exists", err)
		}
		return apperrors.NewDatabaseError("unable to create waitlist entry", err)
	}

	return nil
}

func (wr *waitlistRepository) FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	return wr.findOne(ctx, "email = ?", email)
}

func (wr *waitlistRepository) FindEntryByToken(ctx context.Context, token string) (*models.WaitlistEntry, error) {
	return wr.findOne(ctx, "verification_token = ?", token)
}

func (wr *waitlistRepository) findOne(ctx context.Context, query string, arg any) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Where(query, arg).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("waitlist entry not found", err)
		}
		return nil, apperrors.NewDatabaseError("failed to fetch waitlist entry", err)
	}

	return &entry, nil
}

func (wr *waitlistRepository) RenewVerification(ctx context.Context, id uint, firstName, lastName, token string, expiry time.Time) (bool, error) {
	result := wr.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]interface{}{
			"first_name":                firstName,
			"last_name":                 lastName,
			"verification_token":        token,
			"verification_token_expiry": expiry,
		})

	if result.Error != nil {
		return false, apperrors.NewDatabaseError("unable to renew verification", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (wr *waitlistRepository) MarkVerified(ctx context.Context, id uint, token string, verifiedAt time.Time) (bool, error) {
	result := wr.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND verification_token = ? AND is_verified = ?", id, token, false).
		Updates(map[string]interface{}{
			"is_verified":               true,
			"verified_at":               verifiedAt,
			"verification_token":        nil,
			"verification_token_expiry": nil,
		})

	if result.Error != nil {
		return false, apperrors.NewDatabaseError("unable to mark waitlist entry verified", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (wr *waitlistRepository) DeleteEntry(ctx context.Context, id uint) error {
	result := wr.db.WithContext(ctx).Unscoped().Delete(&models.WaitlistEntry{}, id)

	if result.Error != nil {
		return apperrors.NewDatabaseError("unable to delete waitlist entry", result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("waitlist entry not found", nil)
	}

	return nil
}

func (wr *waitlistRepository) CountVerifiedEntries(ctx context.Context) (int64, error) {
	var count int64

	if err := wr.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Where("is_verified = ?", true).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("unable to count waitlist entries", err)
	}

	return count, nil
}

func (wr *waitlistRepository) ClearExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	result := wr.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("is_verified = ? AND verification_token_expiry IS NOT NULL AND verification_token_expiry < ?", false, cutoff).
		Updates(map[string]interface{}{
			"verification_token":        nil,
			"verification_token_expiry": nil,
		})

	if result.Error != nil {
		return 0, apperrors.NewDatabaseError("unable to clear expired verification tokens", result.Error)
	}

	return result.RowsAffected, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(err)
}

func isNotFound(err error) bool {
	return apperrors.GetErrorType(err) == apperrors.ErrorTypeNotFound
}
