// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/rosterhub/internal/app/store/records"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write sends {"error": msg} with the given status.
func Write(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// BadRequest sends a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	Write(w, http.StatusBadRequest, msg)
}

// NotFound is the router's 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not found: "+r.URL.Path)
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed: "+r.Method)
}

// ErrorLogger logs server-side failures before answering.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to log.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &ErrorLogger{Log: log}
}

// LogServerError logs err with msg and answers 500 with publicMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, publicMsg string) {
	e.Log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	Write(w, http.StatusInternalServerError, publicMsg)
}

// StoreError answers a record store failure. Validation problems are 400;
// every other failure (not found, duplicate, already deleted) is a 500
// that carries the store's own message.
func (e *ErrorLogger) StoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *records.ValidationError
	if stderrors.As(err, &ve) {
		BadRequest(w, ve.Error())
		return
	}
	lvl := e.Log.Error
	if stderrors.Is(err, records.ErrNotFound) || records.IsConflict(err) {
		lvl = e.Log.Info
	}
	lvl("record operation failed",
		zap.String("op", op),
		zap.Error(err),
		zap.String("path", r.URL.Path))
	Write(w, http.StatusInternalServerError, err.Error())
}
