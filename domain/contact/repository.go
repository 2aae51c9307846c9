package contact

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=contact

import (
	"context"

	"github.com/carbiooai/carbioo-api/internal/models"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"gorm.io/gorm"
)

type ContactRepository interface {
	// CreateMessage appends a contact form submission.
	CreateMessage(ctx context.Context, message *models.ContactMessage) error
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (cr *contactRepository) CreateMessage(ctx context.Context, message *models.ContactMessage) error {
	if err := cr.db.WithContext(ctx).Create(message).Error; err != nil {
		return apperrors.NewDatabaseError("unable to save contact message", err)
	}
	return nil
}
