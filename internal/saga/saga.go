package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is a single unit of a multi-step workflow. Compensate, when set, undoes
// the step after a later step fails. BestEffort steps log their error and let
// the workflow continue; they are for side effects that must never block the
// core flow.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	BestEffort bool
}

// Saga runs an ordered sequence of steps, compensating completed steps in
// reverse order when a required step fails.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.Logger
}

// New creates an empty saga.
func New(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step to the saga.
func (s *Saga) AddStep(step Step) {
	s.steps = append(s.steps, step)
}

// Execute runs the steps in order. A best-effort step never fails the saga.
// When a required step fails, completed steps are compensated newest-first and
// the step's error is returned wrapped with the saga and step names.
func (s *Saga) Execute(ctx context.Context) error {
	s.logger.Info("saga started", zap.String("saga", s.name))

	executed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		err := step.Execute(ctx)
		if err != nil && step.BestEffort {
			s.logger.Warn("best-effort saga step failed, continuing",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			s.logger.Error("saga step failed, starting compensation",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			for i := len(executed) - 1; i >= 0; i-- {
				prev := executed[i]
				if prev.Compensate == nil {
					continue
				}
				if compErr := prev.Compensate(ctx); compErr != nil {
					s.logger.Error("compensation failed",
						zap.String("saga", s.name),
						zap.String("step", prev.Name),
						zap.Error(compErr),
					)
				}
			}
			return fmt.Errorf("saga %q failed at step %q: %w", s.name, step.Name, err)
		}
		executed = append(executed, step)
	}

	s.logger.Info("saga completed", zap.String("saga", s.name))
	return nil
}
