package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/creostudios/backend/internal/lifecycle"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeMessage(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, map[string]string{"message": msg}, status)
}

// writeError maps lifecycle sentinel errors to status codes. Anything
// unclassified surfaces as a 500 with the raw error text.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		writeMessage(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, lifecycle.ErrAuth):
		writeMessage(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, lifecycle.ErrForbidden):
		writeMessage(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, lifecycle.ErrNotFound):
		writeMessage(w, err.Error(), http.StatusNotFound)
	default:
		writeMessage(w, err.Error(), http.StatusInternalServerError)
	}
}
