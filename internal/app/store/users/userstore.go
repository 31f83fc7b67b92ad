// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ideaslab/server/internal/domain/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateDiscordID is returned when the principal already has a
	// user record ("already registered").
	ErrDuplicateDiscordID = errors.New("a user for this member already exists")
	// ErrDuplicateHandle is returned when the handle is taken by another user.
	ErrDuplicateHandle = errors.New("a user with this handle already exists")
)

// Store provides access to the users collection. The unique indexes on
// discord_id and handle are the actual registration/uniqueness
// invariants; application-level existence checks are UX optimizations.
type Store struct {
	c *mongo.Collection
}

// New creates a new users Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes signup correctness depends on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "discord_id", Value: 1}},
			Options: options.Index().SetName("idx_users_discord_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "handle", Value: 1}},
			Options: options.Index().SetName("idx_users_handle").SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// GetByDiscordID loads a user by guild-member id.
// Returns ErrNotFound if the member has not registered.
func (s *Store) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"discord_id": discordID}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByHandle loads a user by profile handle.
func (s *Store) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"handle": handle}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// HandleExists reports whether any user holds the handle.
func (s *Store) HandleExists(ctx context.Context, handle string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"handle": handle}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Create inserts a new user record. Duplicate-key violations are
// translated to ErrDuplicateDiscordID or ErrDuplicateHandle so the
// signup surface can answer "already registered" vs "handle taken".
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Roles == nil {
		u.Roles = []string{}
	}
	if u.Links == nil {
		u.Links = []models.ProfileLink{}
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupError(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// ProfileUpdate holds the caller-editable profile fields.
type ProfileUpdate struct {
	Name      string
	Handle    string
	Introduce string
	Avatar    string
	Roles     []string
	Links     []models.ProfileLink
}

// UpdateProfile rewrites the editable fields of a user.
// Returns ErrNotFound when the member is not registered and
// ErrDuplicateHandle when the new handle collides with another user.
func (s *Store) UpdateProfile(ctx context.Context, discordID string, upd ProfileUpdate) error {
	set := bson.M{
		"name":       upd.Name,
		"handle":     upd.Handle,
		"introduce":  upd.Introduce,
		"avatar":     upd.Avatar,
		"roles":      upd.Roles,
		"links":      upd.Links,
		"updated_at": time.Now().UTC(),
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"discord_id": discordID}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateHandle
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAvatar refreshes the cached guild avatar URL.
// A no-op when the member is not registered.
func (s *Store) UpdateAvatar(ctx context.Context, discordID, avatar string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"discord_id": discordID},
		bson.M{"$set": bson.M{"avatar": avatar, "updated_at": time.Now().UTC()}},
	)
	return err
}

// dupError picks the sentinel matching the violated index. The mongo
// duplicate-key message names the index, so sniffing for the handle
// index is reliable; anything else is the discord_id index.
func dupError(err error) error {
	if strings.Contains(err.Error(), "handle") {
		return ErrDuplicateHandle
	}
	return ErrDuplicateDiscordID
}
