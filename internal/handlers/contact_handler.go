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

type ContactHandler struct {
	contacts *services.ContactService
	logger   *slog.Logger
	timeout  time.Duration
}

func NewContactHandler(contacts *services.ContactService, logger *slog.Logger, timeout time.Duration) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger, timeout: timeout}
}

func (h *ContactHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req models.AddContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.contacts.Add(ctx, userID, req.ContactID); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing userId or contactId")
		default:
			logError(r.Context(), h.logger, "failed to add contact", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to add contact")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"userId":    userID,
		"contactId": req.ContactID,
	}))
}

func (h *ContactHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	contactID := chi.URLParam(r, "contactId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.contacts.Remove(ctx, userID, contactID); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing userId or contactId")
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, services.ErrNotAContact):
			// Caller error, not a missing resource.
			writeError(w, http.StatusBadRequest, "Contact not in contact list")
		default:
			logError(r.Context(), h.logger, "failed to remove contact", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to remove contact")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{
		"userId":    userID,
		"contactId": contactID,
	}))
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entries, err := h.contacts.List(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing userId")
		case errors.Is(err, services.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			logError(r.Context(), h.logger, "failed to list contacts", err, userID)
			writeError(w, http.StatusInternalServerError, "Failed to list contacts")
		}
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(entries))
}
