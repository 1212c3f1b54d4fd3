// internal/app/store/records/chain.go
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// Strategy is one backend able to serve the record operations.
//
// Update and SoftDelete locate the row by key themselves, since only the
// backend knows where rows live. Implementations return errors matching
// ErrUnavailable when the backend cannot be used at all.
type Strategy interface {
	Name() string
	ListAll(ctx context.Context) ([]models.Record, error)
	ListActive(ctx context.Context) ([]models.Record, error)
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, key string, patch models.Patch) (models.Record, error)
	SoftDelete(ctx context.Context, key string) (models.Record, error)
}

// Chain tries strategies in order for each call.
type Chain struct {
	strategies []Strategy
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// NewChain returns a chain over strategies, tried in the given order.
// m may be nil.
func NewChain(log *zap.Logger, m *metrics.Metrics, strategies ...Strategy) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{strategies: strategies, log: log, metrics: m}
}

// Names returns the strategy names in order.
func (c *Chain) Names() []string {
	out := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Name()
	}
	return out
}

// Tier reports one strategy and whether it has what it needs to run.
type Tier struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// Tiers lists the strategies in order. A strategy without a Configured
// method is always considered configured.
func (c *Chain) Tiers() []Tier {
	out := make([]Tier, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = Tier{Name: s.Name(), Configured: true}
		if cs, ok := s.(interface{ Configured() bool }); ok {
			out[i].Configured = cs.Configured()
		}
	}
	return out
}

// attempt runs fn against each strategy until one returns something other
// than an unavailable error. It returns the name of the strategy that
// produced the final result.
func attempt[T any](ctx context.Context, c *Chain, op string, fn func(context.Context, Strategy) (T, error)) (T, string, error) {
	var zero T
	lastErr := error(ErrUnavailable)
	for _, s := range c.strategies {
		callCtx, cancel := timeouts.WithTimeout(ctx, timeouts.Medium(), c.log, s.Name()+"."+op)
		out, err := fn(callCtx, s)
		cancel()

		switch {
		case err == nil:
			c.metrics.BackendAttempt(s.Name(), op, "ok")
			return out, s.Name(), nil
		case errors.Is(err, ErrUnavailable):
			c.metrics.BackendAttempt(s.Name(), op, "unavailable")
			lvl := c.log.Warn
			if errors.Is(err, ErrNotConfigured) {
				lvl = c.log.Debug
			}
			lvl("backend unavailable, falling through",
				zap.String("strategy", s.Name()),
				zap.String("op", op),
				zap.Error(err))
			lastErr = err
		default:
			c.metrics.BackendAttempt(s.Name(), op, "error")
			return zero, s.Name(), err
		}
	}
	return zero, "", fmt.Errorf("%s: no backend available (tried %s): %w", op, strings.Join(c.Names(), ", "), lastErr)
}

// ListAll returns every row from the first available backend.
func (c *Chain) ListAll(ctx context.Context) ([]models.Record, string, error) {
	return attempt(ctx, c, "list_all", func(ctx context.Context, s Strategy) ([]models.Record, error) {
		return s.ListAll(ctx)
	})
}

// ListActive returns non-deleted rows from the first available backend.
func (c *Chain) ListActive(ctx context.Context) ([]models.Record, string, error) {
	return attempt(ctx, c, "list_active", func(ctx context.Context, s Strategy) ([]models.Record, error) {
		return s.ListActive(ctx)
	})
}

// Create appends rec through the first available backend.
func (c *Chain) Create(ctx context.Context, rec models.Record) (models.Record, string, error) {
	return attempt(ctx, c, "create", func(ctx context.Context, s Strategy) (models.Record, error) {
		return s.Create(ctx, rec)
	})
}

// Update patches the row matching key through the first available backend.
func (c *Chain) Update(ctx context.Context, key string, patch models.Patch) (models.Record, string, error) {
	return attempt(ctx, c, "update", func(ctx context.Context, s Strategy) (models.Record, error) {
		return s.Update(ctx, key, patch)
	})
}

// SoftDelete marks the row matching key Deleted through the first
// available backend.
func (c *Chain) SoftDelete(ctx context.Context, key string) (models.Record, string, error) {
	return attempt(ctx, c, "soft_delete", func(ctx context.Context, s Strategy) (models.Record, error) {
		return s.SoftDelete(ctx, key)
	})
}

// filterActive drops soft-deleted records.
func filterActive(recs []models.Record) []models.Record {
	out := make([]models.Record, 0, len(recs))
	for _, r := range recs {
		if !r.IsDeleted() {
			out = append(out, r)
		}
	}
	return out
}

// locate finds the first row whose identity matches key, whatever its
// Status. When a deleted row precedes a re-created one with the same
// email, the deleted row is the one found.
func locate(recs []models.Record, key string) (int, bool) {
	want := models.IdentityKey(key)
	if want == "" {
		return -1, false
	}
	for i, r := range recs {
		if r.Identity() == want {
			return i, true
		}
	}
	return -1, false
}

// Locate is locate for callers outside the package (bulk snapshots).
func Locate(recs []models.Record, key string) (models.Record, bool) {
	i, ok := locate(recs, key)
	if !ok {
		return models.Record{}, false
	}
	return recs[i], true
}
