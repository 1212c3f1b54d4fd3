// internal/app/store/records/csvstrategy.go
package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// CSVFetcher downloads a published CSV export. csvutil.Fetcher implements it.
type CSVFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([][]string, error)
}

// CSVStrategy reads the public CSV export and simulates writes. Simulated
// results carry Instructions describing the manual edit that would make
// them real.
type CSVStrategy struct {
	fetcher CSVFetcher
	url     string
	editURL string
	log     *zap.Logger
}

// NewCSVStrategy returns the public-read strategy. An empty exportURL makes
// every call fail with ErrNotConfigured. editURL is quoted in instructions.
func NewCSVStrategy(fetcher CSVFetcher, exportURL, editURL string, log *zap.Logger) *CSVStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSVStrategy{
		fetcher: fetcher,
		url:     strings.TrimSpace(exportURL),
		editURL: editURL,
		log:     log,
	}
}

func (s *CSVStrategy) Name() string { return "csv" }

// Configured reports whether an export URL is set.
func (s *CSVStrategy) Configured() bool { return s.url != "" && s.fetcher != nil }

func (s *CSVStrategy) table(ctx context.Context) ([]models.Record, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	rows, err := s.fetcher.Fetch(ctx, s.url)
	if err != nil {
		return nil, unavailable(err)
	}
	return rowcodec.DecodeTable(rows), nil
}

func (s *CSVStrategy) ListAll(ctx context.Context) ([]models.Record, error) {
	return s.table(ctx)
}

func (s *CSVStrategy) ListActive(ctx context.Context) ([]models.Record, error) {
	recs, err := s.table(ctx)
	if err != nil {
		return nil, err
	}
	return filterActive(recs), nil
}

func (s *CSVStrategy) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if !s.Configured() {
		return models.Record{}, ErrNotConfigured
	}
	cells, _ := rowcodec.Encode(rec)
	out := rec.Clone()
	out.ID = rowcodec.DerivedID(out, 0)
	out.Instructions = fmt.Sprintf(
		"Read-only mode: the sheet was not changed. Open %s and append a row with: %s",
		s.editURL, strings.Join(cells, " | "))
	s.simulated("create", out)
	return out, nil
}

func (s *CSVStrategy) Update(ctx context.Context, key string, patch models.Patch) (models.Record, error) {
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
	cells, _ := rowcodec.Encode(merged)
	merged.Instructions = fmt.Sprintf(
		"Read-only mode: the sheet was not changed. Open %s and set A%d:H%d to: %s",
		s.editURL, row, row, strings.Join(cells, " | "))
	s.simulated("update", merged)
	return merged, nil
}

func (s *CSVStrategy) SoftDelete(ctx context.Context, key string) (models.Record, error) {
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

	out := recs[i].Clone()
	out.Status = models.StatusDeleted
	out.Instructions = fmt.Sprintf(
		"Read-only mode: the sheet was not changed. Open %s and set cell H%d to %q",
		s.editURL, i+2, models.StatusDeleted)
	s.simulated("soft_delete", out)
	return out, nil
}

func (s *CSVStrategy) simulated(op string, rec models.Record) {
	s.log.Warn("write simulated; manual spreadsheet edit required",
		zap.String("op", op),
		zap.String("email", rec.Email),
		zap.String("instructions", rec.Instructions))
}
