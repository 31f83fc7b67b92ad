// internal/domain/models/messagestat.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStat is a per-member counter of guild messages. It is bumped
// unconditionally for every inbound (non-bot) message, independent of
// whether the message was mirrored into a comment.
type MessageStat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"` // guild member id, unique
	Count     int64              `bson:"count" json:"count"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
