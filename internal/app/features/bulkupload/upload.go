// internal/app/features/bulkupload/upload.go
package bulkupload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/auditlog"
	"github.com/dalemusser/rosterhub/internal/app/system/bulk"
	"github.com/dalemusser/rosterhub/internal/app/system/csvutil"
	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// jsonUpload is the JSON form of a bulk request.
type jsonUpload struct {
	Operation string            `json:"operation"`
	Rows      []json.RawMessage `json:"rows"`
}

// uploadResponse wraps the run result in the success envelope.
type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	bulk.Result
}

// batch is a parsed upload ready for the processor.
type batch struct {
	op      bulk.Operation
	headers []string
	rows    []map[string]string
}

// HandleUpload handles POST /employees/bulk.
//
// Accepts either multipart/form-data with a "file" (.csv, .xlsx or .xls) and
// an "operation" field, or a JSON body {"operation": "...", "rows": [...]}.
// Rows are applied in order; a row failure never stops the batch.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

	b, err := h.parse(r)
	if err != nil {
		h.Log.Info("bulk upload rejected", zap.Error(err))
		apierrors.BadRequest(w, err.Error())
		return
	}
	if len(b.rows) == 0 {
		apierrors.BadRequest(w, "no rows to process")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk."+string(b.op))
	defer cancel()

	res, err := h.Processor.Run(ctx, b.rows, b.headers, b.op)
	if err != nil {
		if records.IsValidation(err) {
			apierrors.BadRequest(w, err.Error())
			return
		}
		h.ErrLog.LogServerError(w, r, "bulk run failed", err, "error processing bulk upload")
		return
	}

	h.AuditLog.BulkCompleted(context.WithoutCancel(r.Context()), r, auditlog.BulkSummary{
		RunID:     res.RunID,
		Operation: res.Operation,
		Success:   res.SuccessCount,
		Errors:    res.ErrorCount,
		Inserted:  res.InsertedCount,
		Updated:   res.UpdatedCount,
		Deleted:   res.DeletedCount,
	})

	apierrors.WriteJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: fmt.Sprintf("%s finished: %d succeeded, %d failed", res.Operation, res.SuccessCount, res.ErrorCount),
		Result:  res,
	})
}

func (h *Handler) parse(r *http.Request) (batch, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return h.parseMultipart(r)
	}
	return parseJSON(r)
}

func (h *Handler) parseMultipart(r *http.Request) (batch, error) {
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		return batch{}, fmt.Errorf("invalid upload: %w", err)
	}
	op, err := bulk.ParseOperation(r.FormValue("operation"))
	if err != nil {
		return batch{}, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return batch{}, errors.New("file is required")
	}
	defer file.Close()

	table, err := csvutil.ReadTable(file, header.Filename, h.MaxUploadBytes)
	if err != nil {
		return batch{}, err
	}
	headers, rows := csvutil.Objects(table)
	h.Log.Debug("bulk file parsed",
		zap.String("filename", header.Filename),
		zap.Int("rows", len(rows)))
	return batch{op: op, headers: headers, rows: rows}, nil
}

func parseJSON(r *http.Request) (batch, error) {
	var in jsonUpload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return batch{}, errors.New("invalid JSON body")
	}
	op, err := bulk.ParseOperation(in.Operation)
	if err != nil {
		return batch{}, err
	}
	if len(in.Rows) > csvutil.MaxRows {
		return batch{}, csvutil.ErrTooManyRows
	}

	// Headers are the row keys in first-seen order, like a file's header
	// row, so the identity column is the first email-like key.
	seen := map[string]bool{}
	var headers []string
	rows := make([]map[string]string, 0, len(in.Rows))
	for _, raw := range in.Rows {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return batch{}, errors.New("invalid JSON body: every row must be an object")
		}
		keys, err := objectKeys(raw)
		if err != nil {
			return batch{}, errors.New("invalid JSON body")
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
		rows = append(rows, rowcodec.LooseFromJSON(obj))
	}
	return batch{op: op, headers: headers, rows: rows}, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}
