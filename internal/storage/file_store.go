package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/peerdex/backend/internal/models"
)

// FileStore is a UserStore backed by a single JSON file, for local
// development and tests. Every mutation rewrites the file through a temp file
// and an atomic rename.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	users    map[string]*models.UserProfile
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	s := &FileStore{
		filePath: filepath.Join(dataDir, "users.json"),
		users:    make(map[string]*models.UserProfile),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing persisted yet.
			return nil
		}
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(&s.users)
}

// save must be called with the write lock held.
func (s *FileStore) save() error {
	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.users); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}

func (s *FileStore) Get(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, exists := s.users[userID]
	if !exists {
		return nil, ErrUserNotFound
	}
	return cloneProfile(profile), nil
}

func (s *FileStore) Set(_ context.Context, userID string, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := cloneProfile(profile)
	doc.UserID = userID
	s.users[userID] = doc
	return s.save()
}

func (s *FileStore) Merge(_ context.Context, userID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, exists := s.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	// Round-trip the fields through JSON onto the stored document so merge
	// behavior matches what the remote backends do with typed field paths.
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, profile); err != nil {
		return err
	}
	return s.save()
}

func (s *FileStore) AddToContacts(_ context.Context, userID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, exists := s.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	for _, id := range profile.Contacts {
		if id == contactID {
			// Already a member; set semantics.
			return nil
		}
	}
	profile.Contacts = append(profile.Contacts, contactID)
	return s.save()
}

func (s *FileStore) RemoveFromContacts(_ context.Context, userID, contactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, exists := s.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	for i, id := range profile.Contacts {
		if id == contactID {
			profile.Contacts = append(profile.Contacts[:i], profile.Contacts[i+1:]...)
			return s.save()
		}
	}
	// Absent members are a no-op here; membership policy lives upstream.
	return nil
}

func (s *FileStore) GetAll(_ context.Context, userIDs []string) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.UserProfile, len(userIDs))
	for i, id := range userIDs {
		if profile, exists := s.users[id]; exists {
			out[i] = cloneProfile(profile)
		}
	}
	return out, nil
}

func (s *FileStore) Close(_ context.Context) error {
	return nil
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	clone := *p
	if p.Contacts != nil {
		// Keep empty-but-present distinct from absent.
		clone.Contacts = append([]string{}, p.Contacts...)
	}
	if p.AvatarURL != nil {
		url := *p.AvatarURL
		clone.AvatarURL = &url
	}
	return &clone
}
