package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/peerdex/backend/internal/models"
	"github.com/peerdex/backend/internal/services"
)

type UserHandler struct {
	profiles *services.ProfileService
	logger   *slog.Logger
	timeout  time.Duration
}

func NewUserHandler(profiles *services.ProfileService, logger *slog.Logger, timeout time.Duration) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger, timeout: timeout}
}

func (h *UserHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.profiles.Create(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing required fields")
		case errors.Is(err, services.ErrAvatarUpload):
			logError(r.Context(), h.logger, "avatar upload failed", err, req.UserID)
			writeError(w, http.StatusInternalServerError, "Failed to upload avatar")
		default:
			logError(r.Context(), h.logger, "failed to save user", err, req.UserID)
			writeError(w, http.StatusInternalServerError, "Failed to save user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(result))
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.UserID = userID

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	updatedFields, err := h.profiles.Update(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing userId")
		case errors.Is(err, services.ErrNoUpdateFields):
			writeError(w, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, services.ErrAvatarUpload):
			logError(r.Context(), h.logger, "avatar upload failed", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to upload avatar")
		default:
			logError(r.Context(), h.logger, "failed to update user", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]any{
		"userId":        userID,
		"updatedFields": updatedFields,
	}))
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	profile, err := h.profiles.Get(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing userId")
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			logError(r.Context(), h.logger, "failed to load user", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to load user")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(profile))
}
