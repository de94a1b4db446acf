package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/peerdex/backend/internal/models"
	"github.com/peerdex/backend/internal/storage"
)

// ErrNotAContact is returned when a removal names an ID that is not in the
// user's contact set. Removal is strict where add is idempotent; the
// asymmetry is deliberate.
var ErrNotAContact = errors.New("contact not in contact list")

// ContactService owns the per-user contacts set: idempotent adds, strict
// removes, and batched listing.
type ContactService struct {
	store storage.UserStore
}

func NewContactService(store storage.UserStore) *ContactService {
	return &ContactService{store: store}
}

// Add unions contactID into userID's contacts. Adding a member that is
// already present succeeds without duplication. contactID is not checked
// against existing documents — dangling references are resolved at listing
// time — and no reverse edge is written.
func (s *ContactService) Add(ctx context.Context, userID, contactID string) error {
	if userID == "" || contactID == "" {
		return fmt.Errorf("%w: userId and contactId are required", ErrMissingFields)
	}

	if err := s.store.AddToContacts(ctx, userID, contactID); err != nil {
		return fmt.Errorf("%w: add contact %s to %s: %v", ErrStore, contactID, userID, err)
	}
	return nil
}

// Remove deletes contactID from userID's contacts. Unlike Add it rejects a
// missing member outright instead of treating it as a no-op.
func (s *ContactService) Remove(ctx context.Context, userID, contactID string) error {
	if userID == "" || contactID == "" {
		return fmt.Errorf("%w: userId and contactId are required", ErrMissingFields)
	}

	profile, err := s.store.Get(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: load user %s: %v", ErrStore, userID, err)
	}

	if !containsID(profile.Contacts, contactID) {
		return ErrNotAContact
	}

	// Two concurrent removals can both pass the membership check; the
	// storage-level set-remove is idempotent, so the race is harmless.
	if err := s.store.RemoveFromContacts(ctx, userID, contactID); err != nil {
		return fmt.Errorf("%w: remove contact %s from %s: %v", ErrStore, contactID, userID, err)
	}
	return nil
}

// List resolves the user's contact IDs into profile entries with one batched
// read. Dangling IDs produce per-entry error markers instead of failing the
// listing; an empty contact set is a successful empty result, distinct from
// the user itself being missing.
func (s *ContactService) List(ctx context.Context, userID string) ([]models.ContactEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrMissingFields)
	}

	profile, err := s.store.Get(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load user %s: %v", ErrStore, userID, err)
	}

	if len(profile.Contacts) == 0 {
		return []models.ContactEntry{}, nil
	}

	resolved, err := s.store.GetAll(ctx, profile.Contacts)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve contacts of %s: %v", ErrStore, userID, err)
	}

	entries := make([]models.ContactEntry, 0, len(resolved))
	for _, contact := range resolved {
		if contact == nil {
			entries = append(entries, models.ContactEntry{Error: "contact not found"})
			continue
		}
		lastUpdated := contact.LastUpdated
		entries = append(entries, models.ContactEntry{
			UserID:      contact.UserID,
			Username:    contact.Username,
			IP:          contact.IP,
			Port:        contact.Port,
			AvatarURL:   contact.AvatarURL,
			Contacts:    contact.Contacts,
			LastUpdated: &lastUpdated,
		})
	}
	return entries, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
