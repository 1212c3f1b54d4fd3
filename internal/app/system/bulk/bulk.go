// Package bulk applies one operation (insert, update or delete) to a batch
// of uploaded rows, sequentially and with per-row error isolation.
package bulk

import (
	"context"
	"fmt"
	"strings"

	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/metrics"
	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation is the action applied to every row of a batch.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ParseOperation accepts the operation name case-insensitively.
func ParseOperation(s string) (Operation, error) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(s))); op {
	case OpInsert, OpUpdate, OpDelete:
		return op, nil
	}
	return "", &records.ValidationError{Field: "operation"}
}

// identityTokens locate the identity column by substring.
var identityTokens = []string{"email", "correo", "mail"}

// Store is the subset of records.Store used by the processor.
type Store interface {
	ListAll(ctx context.Context) ([]models.Record, error)
	ListActive(ctx context.Context) ([]models.Record, error)
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, key string, patch models.Patch) (models.Record, error)
	SoftDelete(ctx context.Context, key string) (models.Record, error)
}

// Result summarizes a run. Details holds one line per input row, in order.
type Result struct {
	RunID         string   `json:"runId"`
	Operation     string   `json:"operation"`
	SuccessCount  int      `json:"successCount"`
	ErrorCount    int      `json:"errorCount"`
	InsertedCount int      `json:"insertedCount"`
	UpdatedCount  int      `json:"updatedCount"`
	DeletedCount  int      `json:"deletedCount"`
	Details       []string `json:"details"`
}

// Processor runs batches against a Store.
type Processor struct {
	store   Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewProcessor returns a Processor. m may be nil.
func NewProcessor(store Store, log *zap.Logger, m *metrics.Metrics) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{store: store, log: log, metrics: m}
}

// IdentityColumn returns the first header containing "email", "correo" or
// "mail", case-insensitively.
func IdentityColumn(headers []string) (string, bool) {
	for _, h := range headers {
		lower := strings.ToLower(h)
		for _, tok := range identityTokens {
			if strings.Contains(lower, tok) {
				return h, true
			}
		}
	}
	return "", false
}

// CheckHeaders validates the batch header before any row runs. insert and
// update need every required field; delete needs only the identity column.
func CheckHeaders(headers []string, op Operation) (identity string, err error) {
	identity, ok := IdentityColumn(headers)
	if !ok {
		return "", &records.ValidationError{Field: string(models.FieldEmail)}
	}
	if op == OpDelete {
		return identity, nil
	}
	present := map[models.Field]bool{}
	for _, h := range headers {
		if f, ok := models.FieldForKey(h); ok {
			present[f] = true
		}
	}
	present[models.FieldEmail] = true
	for _, f := range models.RequiredFields {
		if !present[f] {
			return "", &records.ValidationError{Field: string(f)}
		}
	}
	return identity, nil
}

// Run applies op to rows in input order. A header problem rejects the whole
// batch; a row failure is recorded and the next row still runs.
func (p *Processor) Run(ctx context.Context, rows []map[string]string, headers []string, op Operation) (Result, error) {
	res := Result{
		RunID:     uuid.NewString(),
		Operation: string(op),
		Details:   make([]string, 0, len(rows)),
	}
	identity, err := CheckHeaders(headers, op)
	if err != nil {
		return res, err
	}

	snapshot := p.snapshot(ctx, op)
	log := p.log.With(zap.String("run_id", res.RunID), zap.String("operation", string(op)))

	for i, raw := range rows {
		loose := rowcodec.Loose(raw)
		key := strings.TrimSpace(loose[identity])
		name := displayName(loose)

		var outcome string
		switch op {
		case OpDelete:
			outcome = p.deleteRow(ctx, &res, key, name)
		case OpUpdate:
			outcome = p.updateRow(ctx, &res, loose, identity, key, name)
		case OpInsert:
			outcome = p.insertRow(ctx, &res, loose, identity, key, name, snapshot)
		}
		p.metrics.BulkRow(string(op), outcome)
		if outcome == "error" {
			log.Debug("bulk row failed", zap.Int("row", i+1), zap.String("detail", res.Details[len(res.Details)-1]))
		}
	}

	log.Info("bulk run finished",
		zap.Int("rows", len(rows)),
		zap.Int("success", res.SuccessCount),
		zap.Int("errors", res.ErrorCount))
	return res, nil
}

// snapshot preloads the records insert matches against. Failure is logged
// and an empty snapshot is used.
func (p *Processor) snapshot(ctx context.Context, op Operation) []models.Record {
	var (
		recs []models.Record
		err  error
	)
	if op == OpUpdate {
		recs, err = p.store.ListActive(ctx)
	} else {
		recs, err = p.store.ListAll(ctx)
	}
	if err != nil {
		p.log.Warn("bulk snapshot failed; continuing without it",
			zap.String("operation", string(op)),
			zap.Error(err))
		return nil
	}
	return recs
}

func (p *Processor) deleteRow(ctx context.Context, res *Result, key, name string) string {
	if key == "" {
		return fail(res, "error deleting %s: email is required", name)
	}
	if _, err := p.store.SoftDelete(ctx, key); err != nil {
		return fail(res, "error deleting %s (%s): %v", name, key, err)
	}
	res.SuccessCount++
	res.DeletedCount++
	res.Details = append(res.Details, fmt.Sprintf("deleted: %s (%s)", name, key))
	return "deleted"
}

func (p *Processor) updateRow(ctx context.Context, res *Result, row rowcodec.Loose, identity, key, name string) string {
	if key == "" {
		return fail(res, "error updating %s: email is required", name)
	}
	patch := rowcodec.PatchFromLoose(row, identity)
	if _, err := p.store.Update(ctx, key, patch); err != nil {
		return fail(res, "error updating %s (%s): %v", name, key, err)
	}
	res.SuccessCount++
	res.UpdatedCount++
	res.Details = append(res.Details, fmt.Sprintf("updated: %s (%s)", name, key))
	return "updated"
}

func (p *Processor) insertRow(ctx context.Context, res *Result, row rowcodec.Loose, identity, key, name string, snapshot []models.Record) string {
	if key == "" {
		return fail(res, "error inserting %s: email is required", name)
	}

	existing, found := records.Locate(snapshot, key)
	switch {
	case found && existing.IsDeleted():
		patch := rowcodec.PatchFromLoose(row, identity)
		patch[models.FieldStatus] = models.StatusActive
		if _, err := p.store.Update(ctx, key, patch); err != nil {
			return fail(res, "error reactivating %s (%s): %v", name, key, err)
		}
		res.SuccessCount++
		res.UpdatedCount++
		res.Details = append(res.Details, fmt.Sprintf("reactivated: %s (%s) changed from Deleted to Active", name, key))
		return "reactivated"

	case found:
		res.SuccessCount++
		res.Details = append(res.Details, fmt.Sprintf("skipped: %s (%s) already exists and is active", name, key))
		return "skipped"
	}

	fields := make(rowcodec.Loose, len(row))
	for k, v := range row {
		if k != identity {
			fields[k] = v
		}
	}
	rec := rowcodec.FromLoose(fields)
	rec.Email = key
	if _, err := p.store.Create(ctx, rec); err != nil {
		return fail(res, "error inserting %s (%s): %v", name, key, err)
	}
	res.SuccessCount++
	res.InsertedCount++
	res.Details = append(res.Details, fmt.Sprintf("inserted: %s (%s)", name, key))
	return "inserted"
}

func fail(res *Result, format string, args ...any) string {
	res.ErrorCount++
	res.Details = append(res.Details, fmt.Sprintf(format, args...))
	return "error"
}

func displayName(row rowcodec.Loose) string {
	for k, v := range row {
		if f, ok := models.FieldForKey(k); ok && f == models.FieldName && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return "(no name)"
}
