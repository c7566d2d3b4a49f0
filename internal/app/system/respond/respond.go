// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"go.uber.org/zap"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error writes err as {"error","code"}. Internal and upstream failures are
// logged with their cause; the cause is never written.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	code, msg := apperr.Public(err)
	if status >= 500 && log != nil {
		log.Error("request failed", zap.Int("status", status), zap.String("code", code), zap.Error(err))
	}
	JSON(w, status, errorBody{Error: msg, Code: code})
}

// Message writes a plain error body with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// MaxBody is the default request body limit for JSON endpoints.
const MaxBody = 1 << 20

// Decode reads a JSON body into dst, limited to limit bytes. A malformed body
// becomes a Validation error.
func Decode(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if limit <= 0 {
		limit = MaxBody
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("empty_body", "Request body is required")
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return apperr.Invalid("body_too_large", "Request body is too large")
		}
		return apperr.Invalid("bad_json", "Invalid JSON body")
	}
	return nil
}
