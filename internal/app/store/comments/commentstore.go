// internal/app/store/comments/commentstore.go
package commentstore

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

// ErrDuplicateMessage is returned when the external message id is
// already mirrored. The unique index, not an application check, is
// what rejects replayed message events.
var ErrDuplicateMessage = errors.New("a comment for this message already exists")

// Store provides access to the comments collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new comments Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// EnsureIndexes creates the unique message-id index and the per-post
// listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().SetName("idx_comments_discord_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_comments_post"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create mirrors one reply message as a comment.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.CreatedAt = time.Now().UTC()
	c.HasParent = c.ParentID != ""

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Comment{}, ErrDuplicateMessage
		}
		return models.Comment{}, err
	}
	return c, nil
}

// ListByPost returns a post's comments in insertion order, preserving
// the parent/child references recorded at mirror time.
func (s *Store) ListByPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
