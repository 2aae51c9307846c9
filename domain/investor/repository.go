package investor

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=investor

import (
	"context"

	"github.com/carbiooai/carbioo-api/internal/models"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"gorm.io/gorm"
)

type InvestorRepository interface {
	// CreateInterest appends an investor inquiry.
	CreateInterest(ctx context.Context, interest *models.InvestorInterest) error
}

type investorRepository struct {
	db *gorm.DB
}

func NewInvestorRepository(db *gorm.DB) InvestorRepository {
	return &investorRepository{db: db}
}

func (ir *investorRepository) CreateInterest(ctx context.Context, interest *models.InvestorInterest) error {
	if err := ir.db.WithContext(ctx).Create(interest).Error; err != nil {
		return apperrors.NewDatabaseError("unable to save investor interest", err)
	}
	return nil
}
