package waitlist

import (
	"context"
	"strings"

	"github.com/carbiooai/carbioo-api/internal/log"
)

// VerificationStatus is the outcome of consuming a verification token.
type VerificationStatus string

const (
	VerificationSuccess VerificationStatus = "success"
	VerificationExpired VerificationStatus = "expired"
	VerificationInvalid VerificationStatus = "invalid"
	VerificationAlready VerificationStatus = "already"
	VerificationError   VerificationStatus = "error"
)

var verificationMessages = map[VerificationStatus]string{
	VerificationSuccess: "Your email has been verified. Welcome to the waitlist!",
	VerificationExpired: "This verification link has expired. Please request a new one.",
	VerificationInvalid: "This verification link is invalid or has already been used.",
	VerificationAlready: "This email has already been verified.",
	VerificationError:   "Something went wrong while verifying your email. Please try again.",
}

type VerificationResult struct {
	Status  VerificationStatus `json:"status"`
	Message string             `json:"message"`
}

func newVerificationResult(status VerificationStatus) VerificationResult {
	return VerificationResult{Status: status, Message: verificationMessages[status]}
}

func (s *waitlistService) VerifyToken(ctx context.Context, token string) VerificationResult {
	result := s.verifyToken(ctx, strings.TrimSpace(token))
	s.metrics.verification(result.Status)
	return result
}

func (s *waitlistService) verifyToken(ctx context.Context, token string) VerificationResult {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if token == "" {
		return newVerificationResult(VerificationInvalid)
	}

	entry, err := s.repository.FindEntryByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return newVerificationResult(VerificationInvalid)
		}
		logger.Error("Failed to look up verification token", "error", err)
		return newVerificationResult(VerificationError)
	}

	if entry.IsVerified {
		return newVerificationResult(VerificationAlready)
	}

	now := s.now().UTC()
	if entry.TokenExpired(now) {
		logger.Info("Expired verification token used", "entry_id", entry.ID)
		return newVerificationResult(VerificationExpired)
	}

	verified, err := s.repository.MarkVerified(ctx, entry.ID, token, now)
	if err != nil {
		logger.Error("Failed to mark entry verified", "entry_id", entry.ID, "error", err)
		return newVerificationResult(VerificationError)
	}

	// Another request consumed the token between lookup and update.
	if !verified {
		return newVerificationResult(VerificationInvalid)
	}

	logger.Info("Waitlist entry verified", "entry_id", entry.ID)

	if err := s.notifier.SendWelcome(ctx, entry.Email, entry.FirstName); err != nil {
		logger.Warn("Welcome email delivery failed", "entry_id", entry.ID, "error", err)
	}

	return newVerificationResult(VerificationSuccess)
}
