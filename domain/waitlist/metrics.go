package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	signupOutcomeCreated         = "created"
	signupOutcomeResent          = "resent"
	signupOutcomeAlreadyVerified = "already_verified"
	signupOutcomeDuplicate       = "duplicate"
	signupOutcomeDeliveryFailed  = "delivery_failed"
	signupOutcomeError           = "error"
)

// Metrics counts funnel outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	signups       *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		signups: registerCounterVec(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_signups_total",
				Help: "Waitlist signup and resend attempts by outcome.",
			},
			[]string{"outcome"},
		)),
		verifications: registerCounterVec(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_verifications_total",
				Help: "Verification attempts by resulting status.",
			},
			[]string{"status"},
		)),
	}
}

// registerCounterVec returns the already registered collector when the same
// counter was registered before, so controllers can be mounted more than once in tests.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) signup(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) verification(status VerificationStatus) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(string(status)).Inc()
}
