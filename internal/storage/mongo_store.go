package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peerdex/backend/internal/models"
)

// MongoStore is the alternate UserStore backend. Contact mutations ride on
// $addToSet/$pull so set semantics are applied by the server, matching the
// Firestore backend's behavior under concurrent adds.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string) (*MongoStore, error) {
	if mongoURI == "" || dbName == "" {
		return nil, errors.New("mongo: uri and database name are required")
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	users := client.Database(dbName).Collection(usersCollection)

	// Best-effort index; recency scans are diagnostic only.
	_, _ = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lastUpdated", Value: -1}},
	})

	log.Printf("MongoDB connected (users): db=%s", dbName)
	return &MongoStore{client: client, users: users}, nil
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *MongoStore) Set(ctx context.Context, userID string, profile *models.UserProfile) error {
	doc := *profile
	doc.UserID = userID
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": userID}, &doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Merge(ctx context.Context, userID string, fields map[string]any) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) AddToContacts(ctx context.Context, userID, contactID string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$addToSet": bson.M{"contacts": contactID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) RemoveFromContacts(ctx context.Context, userID, contactID string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$pull": bson.M{"contacts": contactID},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *MongoStore) GetAll(ctx context.Context, userIDs []string) ([]*models.UserProfile, error) {
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	found := make(map[string]*models.UserProfile, len(userIDs))
	for cur.Next(ctx) {
		var profile models.UserProfile
		if err := cur.Decode(&profile); err != nil {
			return nil, err
		}
		found[profile.UserID] = &profile
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.UserProfile, len(userIDs))
	for i, id := range userIDs {
		out[i] = found[id]
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
