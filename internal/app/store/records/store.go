// internal/app/store/records/store.go
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

// Recorder receives the outcome of every write. auditlog.Logger
// implements it.
type Recorder interface {
	RecordWrite(ctx context.Context, op string, rec models.Record, backend string, err error)
}

// Store is the record facade used by handlers and the bulk processor.
type Store struct {
	chain    *Chain
	log      *zap.Logger
	recorder Recorder
}

// New returns a Store over chain. recorder may be nil.
func New(chain *Chain, log *zap.Logger, recorder Recorder) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{chain: chain, log: log, recorder: recorder}
}

// Tiers reports each backend and whether it is configured.
func (s *Store) Tiers() []Tier { return s.chain.Tiers() }

// ListAll returns every record, deleted ones included.
func (s *Store) ListAll(ctx context.Context) ([]models.Record, error) {
	recs, _, err := s.chain.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return withIDs(recs), nil
}

// ListActive returns records whose Status is not Deleted.
func (s *Store) ListActive(ctx context.Context) ([]models.Record, error) {
	recs, _, err := s.chain.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return withIDs(filterActive(recs)), nil
}

// Create validates rec, rejects an Email already used by an active record,
// and appends it with Status Active. When no backend can be read the
// duplicate check is skipped.
func (s *Store) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	rec = rec.Clone()
	rec.Email = strings.TrimSpace(rec.Email)
	if f, missing := rowcodec.MissingRequired(rec); missing {
		return models.Record{}, &ValidationError{Field: string(f)}
	}

	active, err := s.ListActive(ctx)
	switch {
	case err == nil:
		if _, dup := Locate(active, rec.Email); dup {
			err := fmt.Errorf("%w: %s", ErrDuplicateEmail, rec.Email)
			s.record(ctx, "create", rec, "", err)
			return models.Record{}, err
		}
	case errors.Is(err, ErrUnavailable):
		s.log.Warn("duplicate check skipped; no backend could list records",
			zap.String("email", rec.Email),
			zap.Error(err))
	default:
		return models.Record{}, err
	}

	rec.Status = models.StatusActive
	out, backend, err := s.chain.Create(ctx, rec)
	s.record(ctx, "create", rec, backend, err)
	if err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// Update applies patch to the record matching key. Email never changes and
// Status changes only when the patch sets it.
func (s *Store) Update(ctx context.Context, key string, patch models.Patch) (models.Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Record{}, &ValidationError{Field: string(models.FieldEmail)}
	}
	out, backend, err := s.chain.Update(ctx, key, patch)
	s.record(ctx, "update", recordOrKey(out, key), backend, err)
	if err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// SoftDelete marks the record matching key Deleted. A second call for the
// same key fails with ErrAlreadyDeleted.
func (s *Store) SoftDelete(ctx context.Context, key string) (models.Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Record{}, &ValidationError{Field: "id"}
	}
	out, backend, err := s.chain.SoftDelete(ctx, key)
	s.record(ctx, "delete", recordOrKey(out, key), backend, err)
	if err != nil {
		return models.Record{}, err
	}
	return out, nil
}

// EnsureDeleted sets Status Deleted on the record matching key and
// succeeds if it already was.
func (s *Store) EnsureDeleted(ctx context.Context, key string) (models.Record, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Record{}, &ValidationError{Field: "id"}
	}
	return s.Update(ctx, key, models.Patch{models.FieldStatus: models.StatusDeleted})
}

func (s *Store) record(ctx context.Context, op string, rec models.Record, backend string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordWrite(ctx, op, rec, backend, err)
}

func recordOrKey(rec models.Record, key string) models.Record {
	if rec.Email == "" {
		rec.Email = key
	}
	return rec
}

func withIDs(recs []models.Record) []models.Record {
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = rowcodec.DerivedID(recs[i], i)
		}
	}
	return recs
}
