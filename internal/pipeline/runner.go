package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Runner executes a single stage attempt-by-attempt under the stage's
// deadline and retry policy and converts any outcome into a ComponentResult.
// It never lets an adapter error or panic escape to the caller.
type Runner struct {
	quota *QuotaGuard
}

func NewRunner(quota *QuotaGuard) *Runner {
	return &Runner{quota: quota}
}

type invokeOutcome struct {
	payload any
	err     error
}

// Run invokes the adapter under spec.Timeout per attempt, retrying transient
// failures up to spec.MaxRetries additional attempts with jittered
// exponential backoff. Cost is recorded for every attempt that reached the
// external boundary, including failed ones.
func (r *Runner) Run(ctx context.Context, spec StageSpec, adapter Adapter, in Input) ComponentResult {
	logger := zap.S().Named("runner")
	result := ComponentResult{Stage: spec.Kind, Status: StageRunning}
	start := time.Now()

	var lastErr *StageError
	for attempt := 0; attempt <= spec.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = ClassifyError(err)
			break
		}

		if spec.External {
			if err := r.quota.Acquire(ctx, spec.UnitCost); err != nil {
				if errors.Is(err, ErrBudgetExhausted) {
					lastErr = NewRateLimitedError(err.Error())
				} else {
					lastErr = ClassifyError(err)
				}
				// The attempt never reached the boundary: nothing billed,
				// and quota exhaustion is not worth retrying.
				break
			}
		}

		result.Attempts++
		payload, err := r.invoke(ctx, spec, adapter, in)
		if spec.External {
			result.CostIncurred += spec.UnitCost
		}

		if err == nil {
			raw, marshalErr := json.Marshal(payload)
			if marshalErr != nil {
				lastErr = NewInternalError("stage %s produced an unencodable payload: %s", spec.Kind, marshalErr)
				break
			}
			result.Status = StageSucceeded
			result.Payload = raw
			result.Duration = time.Since(start)
			return result
		}

		lastErr = ClassifyError(err)
		logger.Debugw("stage attempt failed",
			"stage", spec.Kind,
			"attempt", result.Attempts,
			"kind", lastErr.Kind,
			"error", lastErr.Message,
		)

		if !lastErr.Retryable || attempt == spec.MaxRetries {
			break
		}
		if err := sleepContext(ctx, backoffDelay(spec.Backoff, attempt)); err != nil {
			lastErr = ClassifyError(err)
			break
		}
	}

	result.Status = StageFailed
	if lastErr != nil && lastErr.Kind == ErrorKindTimeout {
		result.Status = StageTimedOut
	}
	result.Error = lastErr
	result.Duration = time.Since(start)
	return result
}

// invoke runs one attempt under its own deadline. The adapter is driven in a
// goroutine so a deadline breach aborts the attempt even if the adapter
// ignores its context; an abandoned attempt finishes in the background.
func (r *Runner) invoke(ctx context.Context, spec StageSpec, adapter Adapter, in Input) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	outcomeCh := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				outcomeCh <- invokeOutcome{err: NewInternalError("stage %s panicked: %v", spec.Kind, p)}
			}
		}()
		payload, err := adapter.Run(attemptCtx, in)
		outcomeCh <- invokeOutcome{payload: payload, err: err}
	}()

	select {
	case outcome := <-outcomeCh:
		return outcome.payload, outcome.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, NewTimeoutError(spec.Kind, spec.Timeout)
	}
}

func backoffDelay(policy BackoffPolicy, attempt int) time.Duration {
	delay := float64(policy.Initial)
	for i := 0; i < attempt; i++ {
		delay *= policy.Multiplier
	}
	if max := float64(policy.Max); policy.Max > 0 && delay > max {
		delay = max
	}
	if policy.Jitter > 0 {
		delta := delay * policy.Jitter
		delay = delay - delta + rand.Float64()*2*delta
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
