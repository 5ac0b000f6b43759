package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/supplyopt/internal/domain"
	"github.com/rs/zerolog"
)

var (
	// ErrTimeout is returned when a solve exceeds its wall-clock budget or its context is cancelled.
	ErrTimeout = errors.New("solver timed out")
	// ErrNodeLimit is returned when branch-and-bound exhausts its node budget.
	ErrNodeLimit = errors.New("solver node limit reached")
	// ErrTransient marks failures worth one retry: numeric breakdown of the simplex or a recovered panic.
	ErrTransient = errors.New("transient solver failure")
)

// Config bounds a single solve
type Config struct {
	Timeout  time.Duration
	MaxNodes int
}

// DefaultConfig returns a 30 second, 20000 node budget.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second, MaxNodes: 20000}
}

type solveFunc func(ctx context.Context, m *Model, maxNodes int) (Solution, error)

// Runner solves models under a wall-clock timeout
type Runner struct {
	cfg   Config
	solve solveFunc
	log   zerolog.Logger
}

// NewRunner creates a runner. Zero fields in cfg take their defaults.
func NewRunner(cfg Config, log zerolog.Logger) *Runner {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	return &Runner{
		cfg:   cfg,
		solve: solveModel,
		log:   log.With().Str("component", "solver").Logger(),
	}
}

// Run solves m. Infeasible and unbounded models are reported through the
// solution status with a nil error. A non-nil error always comes with status
// Error and no values; transient failures are retried once.
func (r *Runner) Run(ctx context.Context, m *Model) (Solution, error) {
	if err := m.Validate(); err != nil {
		return Solution{Status: domain.SolveError}, fmt.Errorf("invalid model %s: %w", m.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	sol, err := r.attempt(ctx, m)
	if errors.Is(err, ErrTransient) {
		r.log.Warn().Err(err).Str("model", m.Name).Msg("Transient solver failure, retrying")
		sol, err = r.attempt(ctx, m)
	}

	if err != nil {
		r.log.Warn().
			Err(err).
			Str("model", m.Name).
			Dur("elapsed", time.Since(start)).
			Msg("Solve failed")
		return Solution{Status: domain.SolveError, Nodes: sol.Nodes}, err
	}

	r.log.Debug().
		Str("model", m.Name).
		Str("status", string(sol.Status)).
		Int("vars", m.NumVars()).
		Int("constraints", m.NumConstraints()).
		Int("nodes", sol.Nodes).
		Float64("objective", sol.Objective).
		Dur("elapsed", time.Since(start)).
		Msg("Solve finished")
	return sol, nil
}

func (r *Runner) attempt(ctx context.Context, m *Model) (Solution, error) {
	type result struct {
		sol Solution
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{
					sol: Solution{Status: domain.SolveError},
					err: fmt.Errorf("%w: panic in %s: %v", ErrTransient, m.Name, p),
				}
			}
		}()
		sol, err := r.solve(ctx, m, r.cfg.MaxNodes)
		done <- result{sol: sol, err: err}
	}()

	select {
	case res := <-done:
		return res.sol, res.err
	case <-ctx.Done():
		return Solution{Status: domain.SolveError}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

// StatusOf maps a Run result to the status reported to callers.
func StatusOf(sol Solution, err error) domain.SolveStatus {
	if err != nil {
		return domain.SolveError
	}
	return sol.Status
}
