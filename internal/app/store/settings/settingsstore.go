// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ideaslab/server/internal/domain/models"
)

// ErrNotFound is returned when a setting key has no value.
var ErrNotFound = errors.New("setting not found")

// Store provides access to the settings collection: admin-editable
// key-value rows with a type tag that drives editor widgets and update
// validation. Many services read settings; only the admin surface
// writes them.
type Store struct {
	c *mongo.Collection
}

// New creates a new settings Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("settings")}
}

// EnsureIndexes creates the unique key index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetName("idx_settings_key").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Get returns the value for a key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var row models.Setting
	if err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&row); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}
	return row.Value, nil
}

// GetOrDefault returns the value for a key, or def when unset.
func (s *Store) GetOrDefault(ctx context.Context, key, def string) (string, error) {
	v, err := s.Get(ctx, key)
	if err == ErrNotFound {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// List returns all settings sorted by key.
func (s *Store) List(ctx context.Context) ([]models.Setting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Setting
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Set upserts a key's value and type tag.
func (s *Store) Set(ctx context.Context, key, value, typ string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{
			"value":      value,
			"type":       typ,
			"updated_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
