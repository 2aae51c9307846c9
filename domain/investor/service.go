package investor

import (
	"context"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"github.com/go-playground/validator/v10"
)

type InvestorService interface {
	// RecordInterest stores the inquiry and acknowledges it to the submitter.
	// A failed acknowledgment does not fail the request.
	RecordInterest(ctx context.Context, req *CreateInvestorInterestRequest) (*InvestorInterestResponse, error)
}

type investorService struct {
	logger     *log.Logger
	repository InvestorRepository
	notifier   notifications.Sender
	validate   *validator.Validate
}

func NewInvestorService(logger *log.Logger, repository InvestorRepository, notifier notifications.Sender) InvestorService {
	return &investorService{
		logger:     logger,
		repository: repository,
		notifier:   notifier,
		validate:   validation.New(),
	}
}

func (s *investorService) RecordInterest(ctx context.Context, req *CreateInvestorInterestRequest) (*InvestorInterestResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("RecordInterest received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewInvalidRequestError(apperrors.FirstValidationMessage(err, req), err)
	}

	interest := ToInvestorInterestModel(req)
	if err := s.repository.CreateInterest(ctx, interest); err != nil {
		logger.Error("Failed to save investor interest", "error", err)
		return nil, err
	}

	if err := s.notifier.SendInvestorAcknowledgment(ctx, interest.Email, interest.FullName); err != nil {
		logger.Warn("Investor acknowledgment delivery failed", "interest_id", interest.ID, "error", err)
	}

	logger.Info("Investor interest recorded", "interest_id", interest.ID, "investor_type", interest.InvestorType)
	return &InvestorInterestResponse{Message: "Interest recorded successfully"}, nil
}
