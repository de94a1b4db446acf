package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerdex/backend/internal/models"
)

func testProfile(userID string) *models.UserProfile {
	return &models.UserProfile{
		UserID:      userID,
		Username:    "user-" + userID,
		IP:          "192.168.1.10",
		Port:        "9000",
		Contacts:    []string{},
		LastUpdated: time.Now().UTC().Truncate(time.Second),
	}
}

func TestFileStore_SetGet(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user-u1", got.Username)
	assert.NotNil(t, got.Contacts)

	_, err = store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileStore_SetOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))
	require.NoError(t, store.AddToContacts(context.Background(), "u1", "u2"))

	// A second Set is a full overwrite; the contact set does not survive.
	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Contacts)
}

func TestFileStore_Merge(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))

	stamp := time.Now().UTC()
	err = store.Merge(context.Background(), "u1", map[string]any{
		"username":    "renamed",
		"lastUpdated": stamp,
	})
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, "192.168.1.10", got.IP, "unnamed fields stay untouched")

	err = store.Merge(context.Background(), "ghost", map[string]any{"username": "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFileStore_ContactSetSemantics(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))

	require.NoError(t, store.AddToContacts(context.Background(), "u1", "u2"))
	require.NoError(t, store.AddToContacts(context.Background(), "u1", "u2"))
	require.NoError(t, store.AddToContacts(context.Background(), "u1", "u3"))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, got.Contacts)

	require.NoError(t, store.RemoveFromContacts(context.Background(), "u1", "u2"))
	// Removing an absent member is a storage-level no-op.
	require.NoError(t, store.RemoveFromContacts(context.Background(), "u1", "u2"))

	got, err = store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, got.Contacts)

	assert.ErrorIs(t, store.AddToContacts(context.Background(), "ghost", "u2"), ErrUserNotFound)
	assert.ErrorIs(t, store.RemoveFromContacts(context.Background(), "ghost", "u2"), ErrUserNotFound)
}

func TestFileStore_GetAllAlignment(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))
	require.NoError(t, store.Set(context.Background(), "u3", testProfile("u3")))

	got, err := store.GetAll(context.Background(), []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "u1", got[0].UserID)
	assert.Nil(t, got[1], "missing documents yield nil placeholders")
	assert.Equal(t, "u3", got[2].UserID)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))
	require.NoError(t, store.AddToContacts(context.Background(), "u1", "u2"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	got, err := reopened.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user-u1", got.Username)
	assert.Equal(t, []string{"u2"}, got.Contacts)
}

func TestFileStore_GetReturnsCopy(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "u1", testProfile("u1")))

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	got.Username = "mutated"
	got.Contacts = append(got.Contacts, "u9")

	fresh, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user-u1", fresh.Username)
	assert.Empty(t, fresh.Contacts)
}
