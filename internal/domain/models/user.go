// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxProfileLinks is the most links a profile may carry.
const MaxProfileLinks = 6

// ProfileLink is a single named link on a member profile.
// Links are stored in display order.
type ProfileLink struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
}

// User represents a verified community member.
//
// NOTE:
//   - DiscordID is the stable foreign key to the guild member; the record
//     is created exactly once by the signup workflow and never hard-deleted.
//   - The presence of a User row is what marks a member as verified.
//   - Avatar is a cached copy of the guild avatar URL and is refreshed
//     best-effort on profile reads.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID    string             `bson:"discord_id" json:"discord_id"` // unique
	Handle       string             `bson:"handle" json:"handle"`         // unique, URL-safe slug
	Name         string             `bson:"name" json:"name"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	Introduce    string             `bson:"introduce" json:"introduce"`
	Roles        []string           `bson:"roles" json:"roles"` // guild role ids
	Links        []ProfileLink      `bson:"links" json:"links"`
	IsAdmin      bool               `bson:"is_admin" json:"is_admin"`
	RegisterFrom string             `bson:"register_from,omitempty" json:"register_from,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
