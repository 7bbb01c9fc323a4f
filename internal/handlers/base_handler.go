package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/potatix/backend/internal/models"
)

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP status codes.
// Unknown errors are logged and returned as a generic 500 so internal
// details never reach the client.
func (h *BaseHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrForbidden):
		h.respondError(w, http.StatusForbidden, models.ErrForbidden.Error())
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("unexpected service error", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
