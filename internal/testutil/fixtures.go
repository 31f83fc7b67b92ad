package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ideaslab/server/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a registered member.
func (f *Fixtures) CreateUser(ctx context.Context, discordID, handle, name string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		DiscordID: discordID,
		Handle:    handle,
		Name:      name,
		Roles:     []string{},
		Links:     []models.ProfileLink{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdminUser inserts a registered member with the admin flag set.
func (f *Fixtures) CreateAdminUser(ctx context.Context, discordID, handle, name string) models.User {
	f.t.Helper()

	u := f.CreateUser(ctx, discordID, handle, name)
	_, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		map[string]any{"$set": map[string]any{"is_admin": true}})
	if err != nil {
		f.t.Fatalf("failed to promote test user: %v", err)
	}
	u.IsAdmin = true
	return u
}

// CreatePost inserts a tracked forum thread.
func (f *Fixtures) CreatePost(ctx context.Context, threadID, authorID, title string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		DiscordID: threadID,
		AuthorID:  authorID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// SetSetting upserts a configuration row.
func (f *Fixtures) SetSetting(ctx context.Context, key, value, typ string) {
	f.t.Helper()

	_, err := f.db.Collection("settings").InsertOne(ctx, models.Setting{
		ID:        primitive.NewObjectID(),
		Key:       key,
		Value:     value,
		Type:      typ,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		f.t.Fatalf("failed to create test setting: %v", err)
	}
}
