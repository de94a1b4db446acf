package services

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const avatarContentType = "image/jpeg"

// AvatarStore persists avatar images and issues their public URLs.
type AvatarStore interface {
	// Upload writes the avatar for userID and returns its public URL.
	Upload(ctx context.Context, userID string, data []byte) (string, error)
	// Replace deletes the previous avatar object if present, then uploads the
	// new one.
	Replace(ctx context.Context, userID string, data []byte) (string, error)
}

// GCSAvatarStore keeps exactly one avatar object per user in a Cloud Storage
// bucket at avatars/{userId}.jpg. The content type is fixed to image/jpeg
// regardless of the actual bytes; uploads are not sniffed or transcoded.
type GCSAvatarStore struct {
	gcs    *storage.Client
	bucket string
}

// NewGCSAvatarStore creates the storage client once at server startup.
func NewGCSAvatarStore(ctx context.Context, bucket, credentialsFile string) (*GCSAvatarStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("avatars: storage client: %w", err)
	}
	return &GCSAvatarStore{gcs: client, bucket: bucket}, nil
}

func avatarObjectName(userID string) string {
	return fmt.Sprintf("avatars/%s.jpg", userID)
}

func (s *GCSAvatarStore) Upload(ctx context.Context, userID string, data []byte) (string, error) {
	name := avatarObjectName(userID)
	obj := s.gcs.Bucket(s.bucket).Object(name)

	w := obj.NewWriter(ctx)
	w.ContentType = avatarContentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write avatar %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize avatar %s: %w", name, err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("make avatar public %s: %w", name, err)
	}

	return publicURL(s.bucket, name), nil
}

// Replace is delete-then-write rather than overwrite-in-place so the previous
// object is never orphaned. The pair is not atomic: a concurrent reader can
// observe the old URL against a stale or briefly missing object.
func (s *GCSAvatarStore) Replace(ctx context.Context, userID string, data []byte) (string, error) {
	name := avatarObjectName(userID)
	if err := s.gcs.Bucket(s.bucket).Object(name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		return "", fmt.Errorf("delete previous avatar %s: %w", name, err)
	}
	return s.Upload(ctx, userID, data)
}

func (s *GCSAvatarStore) Close() error {
	return s.gcs.Close()
}

func publicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, url.PathEscape(objectName))
}
