package employees

import (
	"encoding/json"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"github.com/dalemusser/rosterhub/internal/app/system/rowcodec"
	"github.com/dalemusser/rosterhub/internal/domain/models"
	"go.uber.org/zap"
)

// maxBodyBytes bounds a single-record JSON body.
const maxBodyBytes = 1 << 20

// Handler serves the employee record endpoints.
type Handler struct {
	Store  *records.Store
	Log    *zap.Logger
	ErrLog *apierrors.ErrorLogger
}

// NewHandler constructs an employees Handler.
func NewHandler(store *records.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Log:    logger,
		ErrLog: apierrors.NewErrorLogger(logger),
	}
}

// writeResponse is the success envelope of every write. Employee mirrors
// Record for older clients.
type writeResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Record   *models.Record `json:"record,omitempty"`
	Employee *models.Record `json:"employee,omitempty"`
}

func written(msg string, rec *models.Record) writeResponse {
	return writeResponse{Success: true, Message: msg, Record: rec, Employee: rec}
}

// ServeList handles GET /employees: records that are not Deleted.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListActive(r.Context())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list active records failed", err, "error fetching records")
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, nonNil(recs))
}

// ServeListAll handles GET /employees/all: every record, Deleted included.
func (h *Handler) ServeListAll(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListAll(r.Context())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list all records failed", err, "error fetching all records")
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, nonNil(recs))
}

// HandleCreate handles POST /employees and POST /employees/add.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	loose, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	rec, err := h.Store.Create(r.Context(), rowcodec.FromLoose(loose))
	if err != nil {
		h.ErrLog.StoreError(w, r, "create", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, written("record created", &rec))
}

// HandleUpdate handles PUT /employees and PUT /employees/update. The body
// identifies the record by Email (or an alias of it), falling back to id;
// every other schema key present becomes part of the patch.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	loose, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	key := identityOf(loose)
	if key == "" {
		apierrors.BadRequest(w, (&records.ValidationError{Field: "Email or id"}).Error())
		return
	}
	rec, err := h.Store.Update(r.Context(), key, rowcodec.PatchFromLoose(loose, "id"))
	if err != nil {
		h.ErrLog.StoreError(w, r, "update", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, written("record updated", &rec))
}

// HandleDelete handles DELETE /employees?id=. Deleting a record that is
// already Deleted is an error.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		apierrors.BadRequest(w, "id is required")
		return
	}
	if _, err := h.Store.SoftDelete(r.Context(), id); err != nil {
		h.ErrLog.StoreError(w, r, "delete", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, written("record deleted", nil))
}

// HandleEnsureDeleted handles PUT /employees/delete?id=. It succeeds whether
// or not the record was already Deleted and returns the record.
func (h *Handler) HandleEnsureDeleted(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		apierrors.BadRequest(w, "id is required")
		return
	}
	rec, err := h.Store.EnsureDeleted(r.Context(), id)
	if err != nil {
		h.ErrLog.StoreError(w, r, "ensure-deleted", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, written("record marked as deleted", &rec))
}

// decodeBody reads a JSON object into a loose row. It answers 400 and
// returns false when the body is not an object.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (rowcodec.Loose, bool) {
	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil || body == nil {
		h.Log.Debug("rejecting request body", zap.String("path", r.URL.Path), zap.Error(err))
		apierrors.BadRequest(w, "invalid JSON body")
		return nil, false
	}
	return rowcodec.LooseFromJSON(body), true
}

// identityOf returns the Email value (under any alias) or, failing that, id.
func identityOf(row rowcodec.Loose) string {
	for k, v := range row {
		if f, ok := models.FieldForKey(k); ok && f == models.FieldEmail {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(row["id"])
}

func nonNil(recs []models.Record) []models.Record {
	if recs == nil {
		return []models.Record{}
	}
	return recs
}
