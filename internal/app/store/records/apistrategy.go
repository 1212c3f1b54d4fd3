// internal/app/store/records/apistrategy.go
package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// ValuesClient reads and writes cell ranges of the backing spreadsheet.
// sheetsapi.Client is the production implementation.
type ValuesClient interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Append(ctx context.Context, rng string, rows [][]string) error
	Update(ctx context.Context, rng string, rows [][]string) error
}

// APIStrategy reads and writes through the authenticated Sheets API.
type APIStrategy struct {
	client ValuesClient
	tab    string
	log    *zap.Logger
}

// NewAPIStrategy returns the authenticated strategy. A nil client means
// credentials are absent; every call then fails with ErrNotConfigured.
func NewAPIStrategy(client ValuesClient, tab string, log *zap.Logger) *APIStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIStrategy{client: client, tab: strings.TrimSpace(tab), log: log}
}

func (s *APIStrategy) Name() string { return "api" }

// Configured reports whether a client is present.
func (s *APIStrategy) Configured() bool { return s.client != nil }

// rng prefixes an A1 range with the quoted tab name when one is set.
func (s *APIStrategy) rng(a1 string) string {
	if s.tab == "" {
		return a1
	}
	return "'" + strings.ReplaceAll(s.tab, "'", "''") + "'!" + a1
}

func (s *APIStrategy) table(ctx context.Context) ([]models.Record, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.client.Get(ctx, s.rng("A:H"))
	if err != nil {
		return nil, unavailable(err)
	}
	return rowcodec.DecodeTable(rows), nil
}

func (s *APIStrategy) ListAll(ctx context.Context) ([]models.Record, error) {
	return s.table(ctx)
}

func (s *APIStrategy) ListActive(ctx context.Context) ([]models.Record, error) {
	recs, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return filterActive(recs), nil
}

func (s *APIStrategy) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if s.client == nil {
		return models.Record{}, ErrNotConfigured
	}
	cells := s.encode(rec)
	if err := s.client.Append(ctx, s.rng("A:H"), [][]string{cells}); err != nil {
		return models.Record{}, unavailable(err)
	}
	out := rec.Clone()
	out.ID = rowcodec.DerivedID(out, 0)
	return out, nil
}

func (s *APIStrategy) Update(ctx context.Context, key string, patch models.Patch) (models.Record, error) {
	recs, err := s.table(ctx)
	if err != nil {
		return models.Record{}, err
	}
	i, ok := locate(recs, key)
	if !ok {
		return models.Record{}, notFound(key)
	}
	merged := patch.Apply(recs[i])
	merged.Email = recs[i].Email

	row := i + 2
	if err := s.client.Update(ctx, s.rng(fmt.Sprintf("A%d:H%d", row, row)), [][]string{s.encode(merged)}); err != nil {
		return models.Record{}, unavailable(err)
	}
	return merged, nil
}

func (s *APIStrategy) SoftDelete(ctx context.Context, key string) (models.Record, error) {
	recs, err := s.table(ctx)
	if err != nil {
		return models.Record{}, err
	}
	i, ok := locate(recs, key)
	if !ok {
		return models.Record{}, notFound(key)
	}
	if recs[i].IsDeleted() {
		return models.Record{}, alreadyDeleted(key)
	}

	row := i + 2
	if err := s.client.Update(ctx, s.rng(fmt.Sprintf("H%d", row)), [][]string{{models.StatusDeleted}}); err != nil {
		return models.Record{}, unavailable(err)
	}
	out := recs[i].Clone()
	out.Status = models.StatusDeleted
	return out, nil
}

// encode writes the fixed eight columns and warns about extra columns that
// the write cannot carry.
func (s *APIStrategy) encode(rec models.Record) []string {
	cells, dropped := rowcodec.Encode(rec)
	if len(dropped) > 0 {
		s.log.Warn("columns outside the sheet schema were not written",
			zap.String("email", rec.Email),
			zap.Strings("dropped", dropped))
	}
	return cells
}
