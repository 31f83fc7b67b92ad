// internal/app/store/posts/poststore.go
package poststore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ideaslab/server/internal/domain/models"
)

var (
	// ErrNotFound is returned when no post matches the lookup. A thread
	// with no post record is simply untracked.
	ErrNotFound = errors.New("post not found")
	// ErrDuplicateThread is returned when the thread is already tracked.
	ErrDuplicateThread = errors.New("a post for this thread already exists")
)

// Store provides access to the posts collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new posts Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

// EnsureIndexes creates the unique thread-id index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().SetName("idx_posts_discord_id").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByThreadID loads the post tracking a guild forum thread.
func (s *Store) GetByThreadID(ctx context.Context, threadID string) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"discord_id": threadID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create starts tracking a forum thread.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	p.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Post{}, ErrDuplicateThread
		}
		return models.Post{}, err
	}
	return p, nil
}
