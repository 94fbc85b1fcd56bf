package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrBudgetExhausted is returned by Acquire when the billed budget for the
// current window is spent. The runner records it as a non-retryable
// rate_limited failure.
var ErrBudgetExhausted = errors.New("external call budget exhausted")

// QuotaGuard is the process-wide gate in front of every billed external call.
// It combines a spend budget per window with a request-rate limiter. Every
// stage attempt that reaches the external boundary must pass through Acquire;
// no stage may bypass it. The guard is injected into the runner, never a
// hidden singleton.
type QuotaGuard struct {
	mu     sync.Mutex
	budget float64
	spent  float64

	limiter *rate.Limiter

	resetEvery time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

// NewQuotaGuard creates a guard with the given budget per reset window and
// outbound request rate. A zero budget disables spend tracking; a zero rps
// disables pacing.
func NewQuotaGuard(budget float64, rps float64, burst int) *QuotaGuard {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &QuotaGuard{
		budget:  budget,
		limiter: rate.NewLimiter(limit, burst),
		done:    make(chan struct{}),
	}
}

// Acquire reserves quota for one attempt costing cost. It blocks for pacing
// only, never for budget: an exhausted budget fails immediately.
func (g *QuotaGuard) Acquire(ctx context.Context, cost float64) error {
	g.mu.Lock()
	if g.budget > 0 && g.spent+cost > g.budget {
		g.mu.Unlock()
		return ErrBudgetExhausted
	}
	g.spent += cost
	g.mu.Unlock()

	if err := g.limiter.Wait(ctx); err != nil {
		// The reservation was never used; hand the spend back.
		g.mu.Lock()
		g.spent -= cost
		g.mu.Unlock()
		return err
	}
	return nil
}

// Spent reports the budget consumed in the current window.
func (g *QuotaGuard) Spent() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spent
}

// StartReset resets the spend counter every interval. The tick is jittered so
// a fleet of instances does not reset in lockstep against the same upstream.
func (g *QuotaGuard) StartReset(interval time.Duration) {
	if interval <= 0 {
		return
	}
	g.resetEvery = interval

	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: interval / 100})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.mu.Lock()
				g.spent = 0
				g.mu.Unlock()
				zap.S().Named("quota").Debug("spend window reset")
			case <-g.done:
				return
			}
		}
	}()
}

// Close stops the reset loop.
func (g *QuotaGuard) Close() {
	g.closeOnce.Do(func() { close(g.done) })
}
