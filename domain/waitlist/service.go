package waitlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/carbiooai/carbioo-api/internal/log"
	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/internal/notifications"
	"github.com/carbiooai/carbioo-api/pkg/constants"
	apperrors "github.com/carbiooai/carbioo-api/pkg/errors"
	"github.com/carbiooai/carbioo-api/pkg/saga"
	"github.com/carbiooai/carbioo-api/pkg/validation"
	"github.com/go-playground/validator/v10"
)

const (
	msgSignupCreated     = "Almost there! Check your inbox to verify your email address."
	msgSignupResent      = "You're already signed up. We've sent you a new verification email."
	msgAlreadyOnList     = "You are already on the waitlist!"
	msgDeliveryFailed    = "We couldn't send your verification email. Please try again."
	msgResendSent        = "A new verification email is on its way."
	msgResendVerified    = "This email is already verified."
	msgResendUnknown     = "No waitlist entry found for this email."
	msgCheckAvailable    = "Email is available."
	msgCheckPending      = "This email is on the waitlist but not yet verified."
	msgCheckVerified     = "This email is already on the waitlist."
	stepPersistEntry     = "persist_entry"
	stepSendVerification = "send_verification_email"
)

type WaitlistService interface {
	// Signup validates the request and either creates an entry with a new
	// verification cycle, renews the cycle of an unverified entry, or reports
	// an already verified entry without touching it.
	Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error)

	// CheckEmail reports whether an email is free, pending or verified without mutating anything.
	CheckEmail(ctx context.Context, req *CheckEmailRequest) (*CheckEmailResponse, error)

	// VerifyToken consumes a verification token. It never returns an error;
	// failures are reported as VerificationError.
	VerifyToken(ctx context.Context, token string) VerificationResult

	// ResendVerification opens a new verification cycle for an unverified entry.
	ResendVerification(ctx context.Context, req *ResendVerificationRequest) (*ResendVerificationResponse, error)

	// CountVerified returns the number of verified entries.
	CountVerified(ctx context.Context) (*CountResponse, error)

	// PurgeExpiredTokens clears verification cycles that expired before cutoff.
	PurgeExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceOption func(*waitlistService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *waitlistService) {
		s.now = now
	}
}

func WithTokenGenerator(generate TokenGenerator) ServiceOption {
	return func(s *waitlistService) {
		s.newToken = generate
	}
}

func WithMetrics(metrics *Metrics) ServiceOption {
	return func(s *waitlistService) {
		s.metrics = metrics
	}
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	notifier   notifications.Sender
	validate   *validator.Validate
	tokenTTL   time.Duration
	now        func() time.Time
	newToken   TokenGenerator
	metrics    *Metrics
}

func NewWaitlistService(
	logger *log.Logger,
	repository WaitlistRepository,
	notifier notifications.Sender,
	tokenTTL time.Duration,
	opts ...ServiceOption,
) WaitlistService {
	if tokenTTL <= 0 {
		tokenTTL = constants.DefaultVerificationTokenTTL
	}

	s := &waitlistService{
		logger:     logger,
		repository: repository,
		notifier:   notifier,
		validate:   validation.New(),
		tokenTTL:   tokenTTL,
		now:        time.Now,
		newToken:   GenerateVerificationToken,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *waitlistService) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Signup received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		logger.Warn("Signup rejected by validation", "error", err)
		return nil, apperrors.NewInvalidRequestError(apperrors.FirstValidationMessage(err, req), err)
	}

	existing, err := s.repository.FindEntryByEmail(ctx, req.Email)
	if err != nil && !isNotFound(err) {
		logger.Error("Failed to look up waitlist entry", "error", err)
		s.metrics.signup(signupOutcomeError)
		return nil, err
	}

	if existing != nil {
		if existing.IsVerified {
			logger.Info("Signup for already verified email", "entry_id", existing.ID)
			s.metrics.signup(signupOutcomeAlreadyVerified)
			return alreadyVerifiedResponse(), nil
		}

		return s.renewSignup(ctx, logger, existing, req.FirstName, req.LastName)
	}

	return s.createSignup(ctx, logger, req)
}

// createSignup persists the entry and sends the verification email as one
// saga; a failed send hard-deletes the entry again.
func (s *waitlistService) createSignup(ctx context.Context, logger *log.Logger, req *SignupRequest) (*SignupResponse, error) {
	token, expiry, err := s.issueToken()
	if err != nil {
		logger.Error("Failed to issue verification token", "error", err)
		s.metrics.signup(signupOutcomeError)
		return nil, apperrors.NewInternalServerError("unable to start verification", err)
	}

	entry := ToWaitlistEntryModel(req, token, expiry)

	err = saga.New(
		saga.Step{
			Name: stepPersistEntry,
			Run: func(ctx context.Context) error {
				return s.repository.CreateEntry(ctx, entry)
			},
			Compensate: func(ctx context.Context) error {
				return s.repository.DeleteEntry(ctx, entry.ID)
			},
		},
		saga.Step{
			Name: stepSendVerification,
			Run: func(ctx context.Context) error {
				return s.notifier.SendVerification(ctx, entry.Email, entry.FirstName, token)
			},
		},
	).Execute(ctx)

	if err == nil {
		logger.Info("Waitlist entry created", "entry_id", entry.ID)
		s.metrics.signup(signupOutcomeCreated)
		return &SignupResponse{
			Message:             msgSignupCreated,
			Success:             true,
			PendingVerification: true,
			Created:             true,
		}, nil
	}

	var stepErr *saga.StepError
	if !errors.As(err, &stepErr) {
		s.metrics.signup(signupOutcomeError)
		return nil, apperrors.NewInternalServerError("unable to complete signup", err)
	}

	if stepErr.Step == stepPersistEntry {
		// The unique index caught a concurrent signup for the same email.
		if apperrors.GetErrorType(stepErr.Err) == apperrors.ErrorTypeConflict {
			logger.Info("Concurrent signup for the same email")
			s.metrics.signup(signupOutcomeDuplicate)
			return &SignupResponse{Message: msgAlreadyOnList, AlreadyExists: true}, nil
		}

		logger.Error("Failed to create waitlist entry", "error", stepErr.Err)
		s.metrics.signup(signupOutcomeError)
		return nil, stepErr.Err
	}

	if !stepErr.Compensated() {
		logger.Error("Failed to roll back waitlist entry after delivery failure",
			"entry_id", entry.ID,
			"error", stepErr.CompensationErr,
		)
	}

	logger.Error("Verification email delivery failed; entry rolled back", "entry_id", entry.ID, "error", stepErr.Err)
	s.metrics.signup(signupOutcomeDeliveryFailed)
	return nil, apperrors.NewDeliveryError(msgDeliveryFailed, stepErr.Err)
}

// renewSignup re-opens the verification cycle of an unverified entry. A
// failed send is reported but the entry stays.
func (s *waitlistService) renewSignup(ctx context.Context, logger *log.Logger, entry *models.WaitlistEntry, firstName, lastName string) (*SignupResponse, error) {
	renewed, err := s.renewVerification(ctx, logger, entry, firstName, lastName)
	if err != nil {
		return nil, err
	}

	if !renewed {
		s.metrics.signup(signupOutcomeAlreadyVerified)
		return alreadyVerifiedResponse(), nil
	}

	s.metrics.signup(signupOutcomeResent)
	return &SignupResponse{
		Message:             msgSignupResent,
		PendingVerification: true,
		AlreadyExists:       true,
		Verified:            boolPtr(false),
	}, nil
}

// renewVerification issues a new token, stores it and sends it. It reports
// false, without sending, when the entry was verified concurrently.
func (s *waitlistService) renewVerification(ctx context.Context, logger *log.Logger, entry *models.WaitlistEntry, firstName, lastName string) (bool, error) {
	token, expiry, err := s.issueToken()
	if err != nil {
		logger.Error("Failed to issue verification token", "error", err)
		s.metrics.signup(signupOutcomeError)
		return false, apperrors.NewInternalServerError("unable to start verification", err)
	}

	renewed, err := s.repository.RenewVerification(ctx, entry.ID, firstName, lastName, token, expiry)
	if err != nil {
		logger.Error("Failed to renew verification", "entry_id", entry.ID, "error", err)
		s.metrics.signup(signupOutcomeError)
		return false, err
	}

	if !renewed {
		logger.Info("Entry verified concurrently; skipping renewal", "entry_id", entry.ID)
		return false, nil
	}

	if err := s.notifier.SendVerification(ctx, entry.Email, firstName, token); err != nil {
		logger.Error("Verification email delivery failed", "entry_id", entry.ID, "error", err)
		s.metrics.signup(signupOutcomeDeliveryFailed)
		return false, apperrors.NewDeliveryError(msgDeliveryFailed, err)
	}

	logger.Info("Verification cycle renewed", "entry_id", entry.ID)
	return true, nil
}

func (s *waitlistService) CheckEmail(ctx context.Context, req *CheckEmailRequest) (*CheckEmailResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return &CheckEmailResponse{
			Valid:   false,
			Message: invalidEmailMessage(req.Email),
		}, nil
	}

	entry, err := s.repository.FindEntryByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return &CheckEmailResponse{
				Valid:    true,
				Exists:   boolPtr(false),
				Verified: boolPtr(false),
				Message:  msgCheckAvailable,
			}, nil
		}

		logger.Error("Failed to check email", "error", err)
		return nil, err
	}

	message := msgCheckPending
	if entry.IsVerified {
		message = msgCheckVerified
	}

	return &CheckEmailResponse{
		Valid:    true,
		Exists:   boolPtr(true),
		Verified: boolPtr(entry.IsVerified),
		Message:  message,
	}, nil
}

func (s *waitlistService) ResendVerification(ctx context.Context, req *ResendVerificationRequest) (*ResendVerificationResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewInvalidRequestError(apperrors.FirstValidationMessage(err, req), err)
	}

	entry, err := s.repository.FindEntryByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFoundError(msgResendUnknown, err)
		}
		logger.Error("Failed to look up waitlist entry", "error", err)
		return nil, err
	}

	if entry.IsVerified {
		return &ResendVerificationResponse{Message: msgResendVerified, Verified: true}, nil
	}

	renewed, err := s.renewVerification(ctx, logger, entry, entry.FirstName, entry.LastName)
	if err != nil {
		return nil, err
	}

	if !renewed {
		return &ResendVerificationResponse{Message: msgResendVerified, Verified: true}, nil
	}

	s.metrics.signup(signupOutcomeResent)
	return &ResendVerificationResponse{Message: msgResendSent, Success: true}, nil
}

func (s *waitlistService) CountVerified(ctx context.Context) (*CountResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	count, err := s.repository.CountVerifiedEntries(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist entries", "error", err)
		return nil, err
	}

	return &CountResponse{Count: count}, nil
}

func (s *waitlistService) PurgeExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	cleared, err := s.repository.ClearExpiredTokens(ctx, cutoff.UTC())
	if err != nil {
		logger.Error("Failed to purge expired verification tokens", "error", err)
		return 0, err
	}

	logger.Info("Expired verification tokens purged", "cleared", cleared, "cutoff", cutoff.UTC())
	return cleared, nil
}

func (s *waitlistService) issueToken() (string, time.Time, error) {
	token, err := s.newToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, s.now().UTC().Add(s.tokenTTL), nil
}

func alreadyVerifiedResponse() *SignupResponse {
	return &SignupResponse{
		Message:       msgAlreadyOnList,
		AlreadyExists: true,
		Verified:      boolPtr(true),
	}
}

func invalidEmailMessage(email string) string {
	if strings.Contains(email, "@") && validation.IsDisposableEmail(email) {
		return "Disposable email addresses are not allowed."
	}
	return "Please provide a valid email address."
}
