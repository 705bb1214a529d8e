package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/monume/tracker/services/tracker-service/internal/model"
	"github.com/monume/tracker/services/tracker-service/internal/session"
)

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrClosed):
		http.Error(w, "edit session superseded", http.StatusConflict)
	case model.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case model.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case model.IsStorage(err):
		logger.Error("storage failure", "err", err)
		http.Error(w, "storage unavailable", http.StatusBadGateway)
	default:
		logger.Error("unexpected failure", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
