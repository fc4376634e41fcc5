package handler

import (
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/trade-journal-api/internal/domain"
)

// httpError maps err to a status and client-safe message. 5xx causes are
// logged and never sent to the client.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"status", status,
			"err", err,
		)
	}
	writeError(w, status, msg)
}

func classify(err error) (int, string) {
	var de *domain.Error
	if errors.As(err, &de) {
		return statusFor(de.Kind), de.Message
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		return status, "Internal server error"
	}
	return status, http.StatusText(status)
}

func statusFor(kind error) int {
	switch {
	case kind == nil:
		return http.StatusInternalServerError
	case errors.Is(kind, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(kind, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
