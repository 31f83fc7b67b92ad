// internal/app/store/messagestats/store.go
package messagestats

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ideaslab/server/internal/domain/models"
)

// Store tracks per-member guild message counts. Increment runs for
// every non-bot message event, independent of comment mirroring.
type Store struct {
	c *mongo.Collection
}

// New creates a new message stats Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("message_stats")}
}

// EnsureIndexes creates the unique per-user index backing the upsert.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_message_stats_user").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Increment bumps a member's message counter, creating the row on
// first sight. Two upserts racing on a missing row can both take the
// insert path and one loses on the unique index; the retry then lands
// on the update path.
func (s *Store) Increment(ctx context.Context, userID string) error {
	update := bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	if wafflemongo.IsDup(err) {
		_, err = s.c.UpdateOne(ctx, bson.M{"user_id": userID}, update, options.Update().SetUpsert(true))
	}
	return err
}

// Get returns a member's counter; zero when the member has no row yet.
func (s *Store) Get(ctx context.Context, userID string) (models.MessageStat, error) {
	var stat models.MessageStat
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&stat)
	if err == mongo.ErrNoDocuments {
		return models.MessageStat{UserID: userID}, nil
	}
	if err != nil {
		return models.MessageStat{}, err
	}
	return stat, nil
}
