package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerdex/backend/internal/models"
	"github.com/peerdex/backend/internal/storage"
)

type fakeStore struct {
	getFn    func(context.Context, string) (*models.UserProfile, error)
	setFn    func(context.Context, string, *models.UserProfile) error
	mergeFn  func(context.Context, string, map[string]any) error
	addFn    func(context.Context, string, string) error
	removeFn func(context.Context, string, string) error
	getAllFn func(context.Context, []string) ([]*models.UserProfile, error)
}

func (f *fakeStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID)
	}
	return nil, errors.New("getFn not provided")
}

func (f *fakeStore) Set(ctx context.Context, userID string, profile *models.UserProfile) error {
	if f.setFn != nil {
		return f.setFn(ctx, userID, profile)
	}
	return errors.New("setFn not provided")
}

func (f *fakeStore) Merge(ctx context.Context, userID string, fields map[string]any) error {
	if f.mergeFn != nil {
		return f.mergeFn(ctx, userID, fields)
	}
	return errors.New("mergeFn not provided")
}

func (f *fakeStore) AddToContacts(ctx context.Context, userID, contactID string) error {
	if f.addFn != nil {
		return f.addFn(ctx, userID, contactID)
	}
	return errors.New("addFn not provided")
}

func (f *fakeStore) RemoveFromContacts(ctx context.Context, userID, contactID string) error {
	if f.removeFn != nil {
		return f.removeFn(ctx, userID, contactID)
	}
	return errors.New("removeFn not provided")
}

func (f *fakeStore) GetAll(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx, userIDs)
	}
	return nil, errors.New("getAllFn not provided")
}

func (f *fakeStore) Close(context.Context) error { return nil }

type fakeAvatarStore struct {
	uploadFn  func(context.Context, string, []byte) (string, error)
	replaceFn func(context.Context, string, []byte) (string, error)
}

func (f *fakeAvatarStore) Upload(ctx context.Context, userID string, data []byte) (string, error) {
	if f.uploadFn != nil {
		return f.uploadFn(ctx, userID, data)
	}
	return "", errors.New("uploadFn not provided")
}

func (f *fakeAvatarStore) Replace(ctx context.Context, userID string, data []byte) (string, error) {
	if f.replaceFn != nil {
		return f.replaceFn(ctx, userID, data)
	}
	return "", errors.New("replaceFn not provided")
}

func TestCreate_WritesFullDocument(t *testing.T) {
	var written *models.UserProfile
	store := &fakeStore{
		setFn: func(_ context.Context, userID string, profile *models.UserProfile) error {
			written = profile
			return nil
		},
	}

	svc := NewProfileService(store, nil)
	result, err := svc.Create(context.Background(), &models.CreateUserRequest{
		UserID:   "u1",
		Username: "alice",
		IP:       "10.0.0.1",
		Port:     "8080",
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", result.UserID)
	assert.Nil(t, result.AvatarURL)

	require.NotNil(t, written)
	assert.Equal(t, "alice", written.Username)
	assert.Nil(t, written.AvatarURL)
	assert.NotNil(t, written.Contacts)
	assert.Empty(t, written.Contacts)
	assert.False(t, written.LastUpdated.IsZero())
}

func TestCreate_MissingFields(t *testing.T) {
	svc := NewProfileService(&fakeStore{}, nil)

	_, err := svc.Create(context.Background(), &models.CreateUserRequest{
		UserID:   "u1",
		Username: "alice",
		IP:       "10.0.0.1",
	})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreate_AvatarFailureSkipsDocumentWrite(t *testing.T) {
	setCalled := false
	store := &fakeStore{
		setFn: func(context.Context, string, *models.UserProfile) error {
			setCalled = true
			return nil
		},
	}
	avatars := &fakeAvatarStore{
		uploadFn: func(context.Context, string, []byte) (string, error) {
			return "", errors.New("bucket unavailable")
		},
	}

	svc := NewProfileService(store, avatars)
	_, err := svc.Create(context.Background(), &models.CreateUserRequest{
		UserID:   "u1",
		Username: "alice",
		IP:       "10.0.0.1",
		Port:     "8080",
		Avatar:   "aGVsbG8=",
	})

	assert.ErrorIs(t, err, ErrAvatarUpload)
	assert.False(t, setCalled, "document must not be written after an avatar failure")
}

func TestCreate_WithAvatar(t *testing.T) {
	var written *models.UserProfile
	store := &fakeStore{
		setFn: func(_ context.Context, _ string, profile *models.UserProfile) error {
			written = profile
			return nil
		},
	}
	avatars := &fakeAvatarStore{
		uploadFn: func(_ context.Context, userID string, data []byte) (string, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, []byte("hello"), data)
			return "https://storage.googleapis.com/b/avatars%2Fu1.jpg", nil
		},
	}

	svc := NewProfileService(store, avatars)
	result, err := svc.Create(context.Background(), &models.CreateUserRequest{
		UserID:   "u1",
		Username: "alice",
		IP:       "10.0.0.1",
		Port:     8080,
		Avatar:   "aGVsbG8=", // "hello"
	})
	require.NoError(t, err)

	require.NotNil(t, result.AvatarURL)
	require.NotNil(t, written.AvatarURL)
	assert.Equal(t, *result.AvatarURL, *written.AvatarURL)
}

func TestCreate_NoAvatarStoreConfigured(t *testing.T) {
	svc := NewProfileService(&fakeStore{}, nil)

	_, err := svc.Create(context.Background(), &models.CreateUserRequest{
		UserID:   "u1",
		Username: "alice",
		IP:       "10.0.0.1",
		Port:     "8080",
		Avatar:   "aGVsbG8=",
	})
	assert.ErrorIs(t, err, ErrAvatarUpload)
}

func TestUpdate_MergesOnlySuppliedFields(t *testing.T) {
	var merged map[string]any
	store := &fakeStore{
		mergeFn: func(_ context.Context, userID string, fields map[string]any) error {
			assert.Equal(t, "u1", userID)
			merged = fields
			return nil
		},
	}

	svc := NewProfileService(store, nil)
	updated, err := svc.Update(context.Background(), &models.UpdateUserRequest{
		UserID: "u1",
		IP:     "10.0.0.2",
	})
	require.NoError(t, err)

	assert.Equal(t, merged, updated)
	assert.Equal(t, "10.0.0.2", updated["ip"])
	assert.Contains(t, updated, "lastUpdated")
	assert.NotContains(t, updated, "username")
	assert.NotContains(t, updated, "port")
	assert.NotContains(t, updated, "contacts")
}

func TestUpdate_NoFields(t *testing.T) {
	mergeCalled := false
	store := &fakeStore{
		mergeFn: func(context.Context, string, map[string]any) error {
			mergeCalled = true
			return nil
		},
	}

	svc := NewProfileService(store, nil)
	_, err := svc.Update(context.Background(), &models.UpdateUserRequest{UserID: "u1"})

	assert.ErrorIs(t, err, ErrNoUpdateFields)
	assert.False(t, mergeCalled, "a timestamp-only write must be rejected before the merge")
}

func TestUpdate_MissingUserID(t *testing.T) {
	svc := NewProfileService(&fakeStore{}, nil)
	_, err := svc.Update(context.Background(), &models.UpdateUserRequest{Username: "alice"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestUpdate_AvatarReplaceFailureSkipsMerge(t *testing.T) {
	mergeCalled := false
	store := &fakeStore{
		mergeFn: func(context.Context, string, map[string]any) error {
			mergeCalled = true
			return nil
		},
	}
	avatars := &fakeAvatarStore{
		replaceFn: func(context.Context, string, []byte) (string, error) {
			return "", errors.New("bucket unavailable")
		},
	}

	svc := NewProfileService(store, avatars)
	_, err := svc.Update(context.Background(), &models.UpdateUserRequest{
		UserID:   "u1",
		Username: "bob",
		Avatar:   "aGVsbG8=",
	})

	assert.ErrorIs(t, err, ErrAvatarUpload)
	assert.False(t, mergeCalled, "no partial merge may be applied after an avatar failure")
}

func TestUpdate_AvatarGoesThroughReplace(t *testing.T) {
	var merged map[string]any
	store := &fakeStore{
		mergeFn: func(_ context.Context, _ string, fields map[string]any) error {
			merged = fields
			return nil
		},
	}
	replaceCalled := false
	avatars := &fakeAvatarStore{
		replaceFn: func(context.Context, string, []byte) (string, error) {
			replaceCalled = true
			return "https://storage.googleapis.com/b/avatars%2Fu1.jpg", nil
		},
	}

	svc := NewProfileService(store, avatars)
	_, err := svc.Update(context.Background(), &models.UpdateUserRequest{
		UserID: "u1",
		Avatar: "aGVsbG8=",
	})
	require.NoError(t, err)

	assert.True(t, replaceCalled, "updates must replace, not plain-upload")
	assert.Equal(t, "https://storage.googleapis.com/b/avatars%2Fu1.jpg", merged["avatarUrl"])
}

func TestUpdate_MissingDocumentIsStoreFailure(t *testing.T) {
	store := &fakeStore{
		mergeFn: func(context.Context, string, map[string]any) error {
			return storage.ErrUserNotFound
		},
	}

	svc := NewProfileService(store, nil)
	_, err := svc.Update(context.Background(), &models.UpdateUserRequest{
		UserID:   "ghost",
		Username: "bob",
	})

	// Updates against a missing document surface as store failures, not 404s.
	assert.ErrorIs(t, err, ErrStore)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestGet(t *testing.T) {
	stored := &models.UserProfile{
		UserID:      "u1",
		Username:    "alice",
		IP:          "10.0.0.1",
		Port:        "8080",
		Contacts:    []string{"u2"},
		LastUpdated: time.Now().UTC(),
	}
	store := &fakeStore{
		getFn: func(_ context.Context, userID string) (*models.UserProfile, error) {
			if userID == "u1" {
				return stored, nil
			}
			return nil, storage.ErrUserNotFound
		},
	}

	svc := NewProfileService(store, nil)

	profile, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, stored, profile)

	_, err = svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingFields)
}
