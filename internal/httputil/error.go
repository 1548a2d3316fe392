package httputil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/kickabout/internal/fixture"
)

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, "bad request", msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, "not found", msg, err)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusConflict, "conflict", msg, err)
}

func Forbidden(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusForbidden, "forbidden", msg, err)
}

func clientError(w http.ResponseWriter, status int, kind, msg string, err error) {
	if err != nil {
		slog.Warn(kind, "message", msg, "error", err)
	} else {
		slog.Warn(kind, "message", msg)
	}
	http.Error(w, msg, status)
}

// Error picks the response status from the engine's error kinds. Client
// errors carry the error text since it says what to fix; anything else is a
// bare 500 logged under msg.
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, fixture.ErrValidation):
		BadRequest(w, err.Error(), err)
	case errors.Is(err, fixture.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		NotFound(w, "not found", err)
	case errors.Is(err, fixture.ErrInvalidState):
		Conflict(w, err.Error(), err)
	case errors.Is(err, fixture.ErrForbidden):
		Forbidden(w, "forbidden", err)
	default:
		InternalServerError(w, msg, err)
	}
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
