package web

// errors.go handles server-fault responses.
//
// Upload and list failures are answered with a bare status code and no body.
// The technical error is logged with the support code from core.MapError and
// the request ID, so an operator can correlate a 500 with its cause.

import (
	"net/http"

	"github.com/JonMunkholm/carupload/internal/core"
	"github.com/JonMunkholm/carupload/internal/logging"
)

// respondError logs err and writes statusCode with an empty body.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	w.WriteHeader(statusCode)
}
