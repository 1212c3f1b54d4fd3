// internal/app/features/webhook/diagnostics.go
package webhook

import (
	"net/http"
	"time"

	apierrors "github.com/dalemusser/rosterhub/internal/app/features/errors"
)

// maskedPrefix is how many leading characters of a token are shown.
const maskedPrefix = 10

type tokenStatus struct {
	Message         string    `json:"message"`
	TokenConfigured bool      `json:"tokenConfigured"`
	TokenValue      string    `json:"tokenValue"`
	Timestamp       time.Time `json:"timestamp"`
}

type tokenCheck struct {
	Message       string    `json:"message"`
	ReceivedToken string    `json:"receivedToken"`
	ExpectedToken string    `json:"expectedToken"`
	TokensMatch   bool      `json:"tokensMatch"`
	Timestamp     time.Time `json:"timestamp"`
}

// mask shows the first ten characters of s followed by "...". An empty s
// yields the placeholder.
func mask(s, empty string) string {
	if s == "" {
		return empty
	}
	if len(s) > maskedPrefix {
		s = s[:maskedPrefix]
	}
	return s + "..."
}

// ServeTest handles GET /webhook/test: reports whether a secret is set.
func (h *Handler) ServeTest(w http.ResponseWriter, r *http.Request) {
	apierrors.WriteJSON(w, http.StatusOK, tokenStatus{
		Message:         "webhook token diagnostics",
		TokenConfigured: h.Secret != "",
		TokenValue:      mask(h.Secret, "not configured"),
		Timestamp:       time.Now().UTC(),
	})
}

// HandleTest handles POST /webhook/test: compares the caller's token with
// the secret without broadcasting anything.
func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get(TokenHeader)
	apierrors.WriteJSON(w, http.StatusOK, tokenCheck{
		Message:       "webhook token check",
		ReceivedToken: mask(got, "not provided"),
		ExpectedToken: mask(h.Secret, "not configured"),
		TokensMatch:   got == h.Secret,
		Timestamp:     time.Now().UTC(),
	})
}
