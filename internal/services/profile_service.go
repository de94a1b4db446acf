package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/peerdex/backend/internal/models"
	"github.com/peerdex/backend/internal/storage"
)

var (
	ErrMissingFields  = errors.New("missing required fields")
	ErrUserNotFound   = errors.New("user not found")
	ErrNoUpdateFields = errors.New("no fields to update")
	ErrAvatarUpload   = errors.New("avatar upload failed")
	ErrStore          = errors.New("store operation failed")
)

// ProfileService owns the user document lifecycle: full-overwrite creation,
// partial-merge updates, and the avatar replacement workflow.
type ProfileService struct {
	store   storage.UserStore
	avatars AvatarStore
	now     func() time.Time
}

// NewProfileService wires the service to its stores. avatars may be nil when
// no bucket is configured; avatar uploads then fail cleanly.
func NewProfileService(store storage.UserStore, avatars AvatarStore) *ProfileService {
	return &ProfileService{store: store, avatars: avatars, now: time.Now}
}

// Create writes the full profile document. If an avatar is supplied its
// upload happens first, and any failure there aborts the whole operation
// before the document is touched. Creation is an upsert: a prior document
// under the same userId, contacts included, is overwritten.
func (s *ProfileService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.CreateUserResult, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d field(s) missing", ErrMissingFields, len(errs))
	}

	var avatarURL *string
	if req.Avatar != "" {
		u, err := s.storeAvatar(ctx, req.UserID, req.Avatar, false)
		if err != nil {
			return nil, err
		}
		avatarURL = &u
	}

	profile := &models.UserProfile{
		UserID:      req.UserID,
		Username:    req.Username,
		IP:          req.IP,
		Port:        req.Port,
		AvatarURL:   avatarURL,
		Contacts:    []string{},
		LastUpdated: s.now().UTC(),
	}

	if err := s.store.Set(ctx, req.UserID, profile); err != nil {
		return nil, fmt.Errorf("%w: save user %s: %v", ErrStore, req.UserID, err)
	}

	return &models.CreateUserResult{UserID: req.UserID, AvatarURL: avatarURL}, nil
}

// Update merges only the supplied fields into an existing document; contacts
// are never touched here. A supplied avatar is replaced (delete-then-write)
// before any field merge, so an avatar failure leaves the document unchanged.
// Returns the exact map of merged fields, timestamp included.
func (s *ProfileService) Update(ctx context.Context, req *models.UpdateUserRequest) (map[string]any, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrMissingFields)
	}

	fields := map[string]any{}
	if req.Username != "" {
		fields["username"] = req.Username
	}
	if req.IP != "" {
		fields["ip"] = req.IP
	}
	if req.Port != nil && req.Port != "" {
		fields["port"] = req.Port
	}

	if req.Avatar != "" {
		u, err := s.storeAvatar(ctx, req.UserID, req.Avatar, true)
		if err != nil {
			return nil, err
		}
		fields["avatarUrl"] = u
	}

	fields["lastUpdated"] = s.now().UTC()
	if len(fields) == 1 {
		// Only the timestamp would be written; reject the no-op.
		return nil, ErrNoUpdateFields
	}

	if err := s.store.Merge(ctx, req.UserID, fields); err != nil {
		return nil, fmt.Errorf("%w: update user %s: %v", ErrStore, req.UserID, err)
	}

	return fields, nil
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
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
	return profile, nil
}

// storeAvatar decodes the transport encoding and hands the bytes to the blob
// store. Every failure in this sequence, decode included, is an avatar-upload
// failure so callers abort before writing the document.
func (s *ProfileService) storeAvatar(ctx context.Context, userID, encoded string, replace bool) (string, error) {
	if s.avatars == nil {
		return "", fmt.Errorf("%w: no avatar bucket configured", ErrAvatarUpload)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: decode avatar for %s: %v", ErrAvatarUpload, userID, err)
	}

	var u string
	if replace {
		u, err = s.avatars.Replace(ctx, userID, data)
	} else {
		u, err = s.avatars.Upload(ctx, userID, data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAvatarUpload, err)
	}
	return u, nil
}
