// internal/app/features/respond/respond.go

// Package respond writes JSON responses and maps domain faults onto HTTP
// statuses so every feature reports errors the same way.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/spanexx/KolocollectV1-sub001/internal/domain/faults"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Err maps the error's fault code onto an HTTP status and writes the
// error body. Unrecognized errors become opaque 500s; the detail goes to
// the log, not the client.
func Err(w http.ResponseWriter, log *zap.Logger, err error) {
	status := faults.Status(err)
	code := faults.CodeOf(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
		code = "internal"
	}
	JSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}
