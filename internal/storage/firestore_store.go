package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/peerdex/backend/internal/models"
)

const usersCollection = "users"

// FirestoreStore is the primary UserStore backend. Set-adds and set-removes
// map onto Firestore's ArrayUnion/ArrayRemove transforms so concurrent
// duplicate adds collapse server-side.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore bootstraps the Firebase app and opens its Firestore
// client. credentialsFile may be empty, in which case application default
// credentials are used.
func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) users() *firestore.CollectionRef {
	return s.client.Collection(usersCollection)
}

func (s *FirestoreStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	doc, err := s.users().Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", userID, err)
	}
	profile.UserID = doc.Ref.ID
	return &profile, nil
}

func (s *FirestoreStore) Set(ctx context.Context, userID string, profile *models.UserProfile) error {
	_, err := s.users().Doc(userID).Set(ctx, profile)
	return err
}

func (s *FirestoreStore) Merge(ctx context.Context, userID string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}

	// Update, unlike Set with MergeAll, fails on a missing document instead
	// of silently creating a partial one.
	_, err := s.users().Doc(userID).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	return err
}

func (s *FirestoreStore) AddToContacts(ctx context.Context, userID, contactID string) error {
	_, err := s.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "contacts", Value: firestore.ArrayUnion(contactID)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	return err
}

func (s *FirestoreStore) RemoveFromContacts(ctx context.Context, userID, contactID string) error {
	_, err := s.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "contacts", Value: firestore.ArrayRemove(contactID)},
	})
	if status.Code(err) == codes.NotFound {
		return ErrUserNotFound
	}
	return err
}

func (s *FirestoreStore) GetAll(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	refs := make([]*firestore.DocumentRef, 0, len(userIDs))
	for _, id := range userIDs {
		refs = append(refs, s.users().Doc(id))
	}

	snaps, err := s.client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserProfile, len(snaps))
	for i, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		var profile models.UserProfile
		if err := snap.DataTo(&profile); err != nil {
			return nil, fmt.Errorf("unmarshal user %s: %w", snap.Ref.ID, err)
		}
		profile.UserID = snap.Ref.ID
		out[i] = &profile
	}
	return out, nil
}

func (s *FirestoreStore) Close(_ context.Context) error {
	return s.client.Close()
}
