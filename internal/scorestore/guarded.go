package scorestore

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/resilience"
)

// Backend is the subset of Store the ranking path needs.
type Backend interface {
	LoadPageRank(ctx context.Context, version, params string) (*PageRankRun, error)
	SavePageRank(ctx context.Context, run PageRankRun) error
}

// Guarded bounds every call with a timeout and stops calling a failing
// backend until its circuit breaker half-opens. A missing vector is not a
// failure.
type Guarded struct {
	backend Backend
	timeout time.Duration
	breaker *resilience.CircuitBreaker
}

// Guard wraps b. A non-positive timeout disables the per-call deadline.
func Guard(b Backend, timeout time.Duration) *Guarded {
	return &Guarded{
		backend: b,
		timeout: timeout,
		breaker: resilience.NewCircuitBreaker("scorestore", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
			Ignore: func(err error) bool {
				return errors.Is(err, apperrors.ErrNotFound)
			},
		}),
	}
}

func (g *Guarded) LoadPageRank(ctx context.Context, version, params string) (*PageRankRun, error) {
	var run *PageRankRun
	err := g.breaker.Execute(func() error {
		var err error
		run, err = resilience.CallWithTimeout(ctx, g.timeout, "load-pagerank",
			func(ctx context.Context) (*PageRankRun, error) {
				return g.backend.LoadPageRank(ctx, version, params)
			})
		return err
	})
	return run, err
}

func (g *Guarded) SavePageRank(ctx context.Context, run PageRankRun) error {
	return g.breaker.Execute(func() error {
		_, err := resilience.CallWithTimeout(ctx, g.timeout, "save-pagerank",
			func(ctx context.Context) (struct{}, error) {
				return struct{}{}, g.backend.SavePageRank(ctx, run)
			})
		return err
	})
}

// State reports the breaker state for diagnostics.
func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}
