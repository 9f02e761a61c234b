package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/tweeter-be/internal/apperr"
	"github.com/hongminglow/tweeter-be/internal/logging"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("respond: encode payload failed", "err", err)
	}
}

// Error writes {"message": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Message: message})
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err maps a service error onto a response. Internal and unclassified errors
// are logged and hidden behind a generic 500.
func Err(w http.ResponseWriter, r *http.Request, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.Internal {
		logging.FromContext(r.Context()).Error("request failed", "err", err)
		Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	Error(w, e.Kind.Status(), e.Message)
}
