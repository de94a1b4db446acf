package storage

import (
	"context"
	"errors"

	"github.com/peerdex/backend/internal/models"
)

// ErrUserNotFound is returned when an operation targets a userId with no
// backing document.
var ErrUserNotFound = errors.New("user document not found")

// UserStore is the document collection backing the directory, keyed by
// userId. Contact mutations are set operations applied server-side by the
// backend, which is what keeps duplicate adds from accumulating without a
// client-side lock.
type UserStore interface {
	// Get returns the stored document or ErrUserNotFound.
	Get(ctx context.Context, userID string) (*models.UserProfile, error)

	// Set writes the full document, overwriting any prior one for the same
	// userId.
	Set(ctx context.Context, userID string, profile *models.UserProfile) error

	// Merge applies a partial field update to an existing document. Fields
	// not named are left untouched. Returns ErrUserNotFound when the document
	// does not exist.
	Merge(ctx context.Context, userID string, fields map[string]any) error

	// AddToContacts unions contactID into the contacts set. Adding a member
	// that is already present succeeds without duplication. Returns
	// ErrUserNotFound when the document does not exist.
	AddToContacts(ctx context.Context, userID, contactID string) error

	// RemoveFromContacts removes contactID from the contacts set. Removing an
	// absent member is a storage-level no-op; the strict membership policy is
	// enforced by the caller.
	RemoveFromContacts(ctx context.Context, userID, contactID string) error

	// GetAll fetches the documents for userIDs in one batched read. The
	// result is aligned with userIDs; entries with no backing document are
	// nil.
	GetAll(ctx context.Context, userIDs []string) ([]*models.UserProfile, error)

	Close(ctx context.Context) error
}
