package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nightmarlin/birthdays/cmd/birthdayserver/internal"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// writeStorageError logs err and passes the backend's message through to the
// client unchanged.
func writeStorageError(ctx context.Context, w http.ResponseWriter, msg string, name internal.Name, err error) {
	slog.ErrorContext(
		ctx,
		msg,
		slog.String("name", name.String()),
		slog.String("error", err.Error()),
	)

	var se *internal.StorageError
	if errors.As(err, &se) {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: se.Message()})
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
