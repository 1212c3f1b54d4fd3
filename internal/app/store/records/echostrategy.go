// internal/app/store/records/echostrategy.go
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// ErrReadFailed is the terminal read error when no backend can list records.
var ErrReadFailed = fmt.Errorf("%w: %w", ErrUnavailable, errors.New("error fetching records from the spreadsheet"))

// EchoStrategy is the last resort: reads fail, writes echo the request back
// with Instructions attached.
type EchoStrategy struct {
	log *zap.Logger
}

// NewEchoStrategy returns the simulated echo strategy.
func NewEchoStrategy(log *zap.Logger) *EchoStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &EchoStrategy{log: log}
}

func (s *EchoStrategy) Name() string { return "echo" }

func (s *EchoStrategy) ListAll(context.Context) ([]models.Record, error) {
	return nil, ErrReadFailed
}

func (s *EchoStrategy) ListActive(context.Context) ([]models.Record, error) {
	return nil, ErrReadFailed
}

func (s *EchoStrategy) Create(_ context.Context, rec models.Record) (models.Record, error) {
	cells, _ := rowcodec.Encode(rec)
	out := rec.Clone()
	out.ID = rowcodec.DerivedID(out, 0)
	out.Instructions = "No spreadsheet backend is reachable; nothing was saved. Append this row by hand: " +
		strings.Join(cells, " | ")
	s.echoed("create", out)
	return out, nil
}

func (s *EchoStrategy) Update(_ context.Context, key string, patch models.Patch) (models.Record, error) {
	out := patch.Apply(models.Record{Email: strings.TrimSpace(key)})
	out.ID = rowcodec.DerivedID(out, 0)
	out.Instructions = fmt.Sprintf(
		"No spreadsheet backend is reachable; nothing was saved. Find the row for %s and apply: %s",
		out.Email, describePatch(patch))
	s.echoed("update", out)
	return out, nil
}

func (s *EchoStrategy) SoftDelete(_ context.Context, key string) (models.Record, error) {
	out := models.Record{Email: strings.TrimSpace(key), Status: models.StatusDeleted}
	out.ID = rowcodec.DerivedID(out, 0)
	out.Instructions = fmt.Sprintf(
		"No spreadsheet backend is reachable; nothing was saved. Find the row for %s and set Status to %q",
		out.Email, models.StatusDeleted)
	s.echoed("soft_delete", out)
	return out, nil
}

func (s *EchoStrategy) echoed(op string, rec models.Record) {
	s.log.Warn("write echoed without a backend",
		zap.String("op", op),
		zap.String("email", rec.Email))
}

// describePatch renders a patch in schema order as "Field=value" pairs.
func describePatch(p models.Patch) string {
	parts := make([]string, 0, len(p))
	for _, f := range models.Schema {
		if v, ok := p[f]; ok {
			parts = append(parts, fmt.Sprintf("%s=%q", f, v))
		}
	}
	if len(parts) == 0 {
		return "(no changes)"
	}
	return strings.Join(parts, ", ")
}
