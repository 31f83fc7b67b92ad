// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a guild forum thread tracked by the platform.
// DiscordID is the external thread id and is unique.
type Post struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID  string             `bson:"discord_id" json:"discord_id"` // thread id, unique
	AuthorID   string             `bson:"author_id" json:"author_id"`   // guild member id
	Title      string             `bson:"title" json:"title"`
	CategoryID string             `bson:"category_id,omitempty" json:"category_id,omitempty"` // parent forum channel id

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Comment mirrors a reply message inside a tracked forum thread.
//
// DiscordID is the external message id and is unique; duplicate message
// events are rejected by the index, not by application checks. ParentID
// is the reply-target message id taken straight from the message
// reference and is not re-validated against the owning Post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscordID string             `bson:"discord_id" json:"discord_id"` // message id, unique
	PostID    primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID  string             `bson:"author_id" json:"author_id"`
	Content   string             `bson:"content" json:"content"`
	ParentID  string             `bson:"parent_id,omitempty" json:"parent_id,omitempty"` // reply-target message id
	HasParent bool               `bson:"has_parent" json:"has_parent"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
