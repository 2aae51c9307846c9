// Package saga runs ordered steps and undoes the completed ones when a later
// step fails.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Step is one unit of work. Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step failed and whether the rollback succeeded.
type StepError struct {
	Step            string
	Err             error
	CompensationErr error
}

func (e *StepError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("saga step %q failed: %v (compensation failed: %v)", e.Step, e.Err, e.CompensationErr)
	}
	return fmt.Sprintf("saga step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Compensated reports whether every completed step was rolled back cleanly.
func (e *StepError) Compensated() bool {
	return e.CompensationErr == nil
}

type Saga struct {
	steps []Step
}

func New(steps ...Step) *Saga {
	return &Saga{steps: steps}
}

// Then appends a step.
func (s *Saga) Then(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps in order. On the first failure it compensates the
// already completed steps in reverse order and returns a *StepError.
// Compensations run with a context that ignores the caller's cancellation so
// a timed-out request still rolls back.
func (s *Saga) Execute(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			return &StepError{
				Step:            step.Name,
				Err:             err,
				CompensationErr: compensate(context.WithoutCancel(ctx), completed),
			}
		}
		completed = append(completed, step)
	}

	return nil
}

func compensate(ctx context.Context, completed []Step) error {
	var errs error

	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("compensate %q: %w", step.Name, err))
		}
	}

	return errs
}
