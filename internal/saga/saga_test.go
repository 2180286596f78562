package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaga_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	s := New("test", zap.NewNop())
	for _, name := range []string{"first", "second", "third"} {
		name := name
		s.AddStep(Step{
			Name:    name,
			Execute: func(ctx context.Context) error { order = append(order, name); return nil },
		})
	}

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestSaga_CompensatesInReverseOrder(t *testing.T) {
	var compensated []string
	s := New("test", zap.NewNop())
	s.AddStep(Step{
		Name:       "first",
		Execute:    func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error { compensated = append(compensated, "first"); return nil },
	})
	s.AddStep(Step{
		Name:       "second",
		Execute:    func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error { compensated = append(compensated, "second"); return nil },
	})
	s.AddStep(Step{
		Name:    "boom",
		Execute: func(ctx context.Context) error { return errors.New("step exploded") },
	})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"boom"`)
	assert.Equal(t, []string{"second", "first"}, compensated)
}

func TestSaga_BestEffortStepFailureDoesNotAbort(t *testing.T) {
	var ran []string
	s := New("test", zap.NewNop())
	s.AddStep(Step{
		Name:       "optional",
		BestEffort: true,
		Execute:    func(ctx context.Context) error { return errors.New("side effect down") },
	})
	s.AddStep(Step{
		Name:    "required",
		Execute: func(ctx context.Context) error { ran = append(ran, "required"); return nil },
	})

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, []string{"required"}, ran)
}

func TestSaga_FailedBestEffortStepIsNotCompensated(t *testing.T) {
	var compensated []string
	s := New("test", zap.NewNop())
	s.AddStep(Step{
		Name:       "optional",
		BestEffort: true,
		Execute:    func(ctx context.Context) error { return errors.New("never happened") },
		Compensate: func(ctx context.Context) error { compensated = append(compensated, "optional"); return nil },
	})
	s.AddStep(Step{
		Name:    "boom",
		Execute: func(ctx context.Context) error { return errors.New("required step failed") },
	})

	require.Error(t, s.Execute(context.Background()))
	assert.Empty(t, compensated, "a skipped best-effort step has nothing to undo")
}

func TestSaga_CompensationErrorsDoNotMaskStepError(t *testing.T) {
	s := New("test", zap.NewNop())
	s.AddStep(Step{
		Name:       "first",
		Execute:    func(ctx context.Context) error { return nil },
		Compensate: func(ctx context.Context) error { return errors.New("undo failed") },
	})
	stepErr := errors.New("step exploded")
	s.AddStep(Step{
		Name:    "boom",
		Execute: func(ctx context.Context) error { return stepErr },
	})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, stepErr)
}
