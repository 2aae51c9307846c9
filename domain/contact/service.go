package contact

import (
	"context"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"github.com/go-playground/validator/v10"
)

type ContactService interface {
	// Submit stores the message and notifies the admin inbox. A failed
	// notification does not fail the submission.
	Submit(ctx context.Context, req *CreateContactMessageRequest) (*ContactMessageResponse, error)
}

type contactService struct {
	logger     *log.Logger
	repository ContactRepository
	notifier   notifications.Sender
	validate   *validator.Validate
}

func NewContactService(logger *log.Logger, repository ContactRepository, notifier notifications.Sender) ContactService {
	return &contactService{
		logger:     logger,
		repository: repository,
		notifier:   notifier,
		validate:   validation.New(),
	}
}

func (s *contactService) Submit(ctx context.Context, req *CreateContactMessageRequest) (*ContactMessageResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Submit received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewInvalidRequestError(apperrors.FirstValidationMessage(err, req), err)
	}

	message := ToContactMessageModel(req)
	if err := s.repository.CreateMessage(ctx, message); err != nil {
		logger.Error("Failed to save contact message", "error", err)
		return nil, err
	}

	err := s.notifier.SendContactNotification(ctx, notifications.ContactDetails{
		FirstName: message.FirstName,
		LastName:  message.LastName,
		Email:     message.Email,
		Message:   message.Message,
	})
	if err != nil {
		logger.Warn("Contact notification delivery failed", "contact_id", message.ID, "error", err)
	}

	logger.Info("Contact message received", "contact_id", message.ID)
	return &ContactMessageResponse{Message: "Message sent successfully"}, nil
}
