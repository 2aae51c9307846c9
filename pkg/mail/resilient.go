package mail

import (
	"context"
	"errors"

	"github.com/carbiooai/carbioo-api/pkg/circuitbreaker"
	"github.com/carbiooai/carbioo-api/pkg/retry"
)

// resilientMailer retries transient failures and stops calling a provider
// that keeps failing.
type resilientMailer struct {
	next    Mailer
	retry   retry.RetryPolicy
	breaker circuitbreaker.CircuitBreaker
	logger  Logger
}

func NewResilientMailer(next Mailer, policy retry.RetryPolicy, breaker circuitbreaker.CircuitBreaker, logger Logger) Mailer {
	if policy == nil {
		policy = retry.NewExponentialBackoff(nil)
	}
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}

	return &resilientMailer{next: next, retry: policy, breaker: breaker, logger: logger}
}

func (m *resilientMailer) Send(ctx context.Context, msg Message) error {
	err := m.breaker.Call(func() error {
		return m.retry.Execute(ctx, func(ctx context.Context) error {
			return m.next.Send(ctx, msg)
		})
	})

	if err != nil && m.logger != nil {
		switch {
		case errors.Is(err, circuitbreaker.ErrCircuitOpen):
			m.logger.Warn("Email delivery short-circuited", "subject", msg.Subject)
		case retry.IsMaxRetriesExceeded(err):
			m.logger.Error("Email delivery failed after retries", "subject", msg.Subject, "error", err)
		default:
			m.logger.Error("Email delivery failed", "subject", msg.Subject, "error", err)
		}
	}

	return err
}
