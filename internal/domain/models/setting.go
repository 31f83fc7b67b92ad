// internal/domain/models/setting.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setting value types. The type tag selects the editor widget on the
// admin side and the validation applied on update.
const (
	SettingTypeChannel = "channel" // value must be a text-capable guild channel id
	SettingTypeRole    = "role"    // value must be an existing guild role id
	SettingTypeTag     = "tag"     // free-form tag value
	SettingTypeString  = "string"  // plain string
)

// Well-known setting keys read by the platform.
const (
	SettingWelcomeChannel = "welcomeChannel"
	SettingWelcomeMessage = "welcomeMessage"
	SettingUserRole       = "userRole"
)

// Setting is a single key-value configuration row.
// Keys are unique; writes go through the admin settings surface only.
type Setting struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key   string             `bson:"key" json:"key"` // unique
	Value string             `bson:"value" json:"value"`
	Type  string             `bson:"type" json:"type"`

	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidSettingType reports whether t is one of the declared type tags.
func ValidSettingType(t string) bool {
	switch t {
	case SettingTypeChannel, SettingTypeRole, SettingTypeTag, SettingTypeString:
		return true
	}
	return false
}
