// Package workflow runs named single-step workflows with a start-to-close
// timeout. It is a thin harness, not an orchestrator: no persistence, no
// scheduling, no retries.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agent-platform/pkg/logger"
)

// DefaultStepTimeout bounds a step when a Definition sets none.
const DefaultStepTimeout = 120 * time.Second

// Step is the unit of work of a workflow.
type Step[T any] func(ctx context.Context) (T, error)

// Definition names a workflow and its only step.
type Definition[T any] struct {
	Name    string
	Step    Step[T]
	Timeout time.Duration
}

// ErrStepTimeout is returned when a step exceeds its start-to-close timeout.
var ErrStepTimeout = errors.New("workflow: step timed out")

// Run executes the step under the definition's timeout and logs the outcome.
func (d Definition[T]) Run(ctx context.Context) (T, error) {
	var zero T
	if d.Step == nil {
		return zero, fmt.Errorf("workflow %s: step not configured", d.Name)
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultStepTimeout
	}
	log := logger.From(ctx).With("workflow", d.Name)

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := d.Step(stepCtx)
	if err == nil && stepCtx.Err() != nil && ctx.Err() == nil {
		err = stepCtx.Err()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %w", ErrStepTimeout, timeout, err)
		}
		log.Error(d.Name+" failed", "err", err, "retryable", IsRetryable(err))
		return zero, fmt.Errorf("workflow %s: %w", d.Name, err)
	}
	log.Info(d.Name+" completed", "result", out, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// RunStep runs step once as a workflow called name.
func RunStep[T any](ctx context.Context, name string, timeout time.Duration, step Step[T]) (T, error) {
	return Definition[T]{Name: name, Step: step, Timeout: timeout}.Run(ctx)
}

// Seeder loads the catalog and reports how many items were written.
type Seeder interface {
	Seed(ctx context.Context) (int, error)
}

// Searcher answers a catalog query.
type Searcher[T any] interface {
	Lookup(ctx context.Context, query string) (T, error)
}

// SeedWorkflow wraps s.Seed as a single-step workflow.
func SeedWorkflow(s Seeder, timeout time.Duration) Definition[int] {
	return Definition[int]{Name: "SeedWorkflow", Step: s.Seed, Timeout: timeout}
}

// SearchWorkflow wraps s.Lookup(query) as a single-step workflow.
func SearchWorkflow[T any](s Searcher[T], query string, timeout time.Duration) Definition[T] {
	return Definition[T]{
		Name:    "SearchWorkflow",
		Timeout: timeout,
		Step: func(ctx context.Context) (T, error) {
			return s.Lookup(ctx, query)
		},
	}
}

// NonRetryableError marks a failure a harness must not retry.
type NonRetryableError struct {
	Message string
	Err     error
}

func (e *NonRetryableError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *NonRetryableError) Unwrap() error { return e.Err }

// NonRetryable wraps err with msg and marks it non-retryable.
func NonRetryable(msg string, err error) error {
	return &NonRetryableError{Message: msg, Err: err}
}

// IsRetryable reports whether err may be retried. Timeouts are retryable;
// anything wrapping a NonRetryableError is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var nr *NonRetryableError
	return !errors.As(err, &nr)
}
