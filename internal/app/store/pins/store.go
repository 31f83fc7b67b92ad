// internal/app/store/pins/store.go
package pins

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ideaslab/server/internal/app/system/token"
)

const (
	// CodeLength is the length of the login PIN (6 digits).
	CodeLength = 6
	// DefaultExpiry is how long a PIN is valid.
	DefaultExpiry = 10 * time.Minute

	// issueRetries bounds retry attempts when two members draw the same
	// code and collide on the unique digest index.
	issueRetries = 3
)

// ErrNotFound is returned when no live PIN matches: unknown, expired,
// and already-consumed codes are deliberately indistinguishable.
var ErrNotFound = errors.New("pin not found or expired")

// Pin is a pending single-use login code. Codes are stored as an
// indexed SHA-256 digest so consumption is a single indexed
// find-and-delete; the principal claims ride along so login needs no
// member fetch.
type Pin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"` // guild member id
	CodeHash  string             `bson:"code_hash"`
	Name      string             `bson:"name"`
	Avatar    string             `bson:"avatar"`
	IsAdmin   bool               `bson:"is_admin"`
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages login PINs.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
}

// New creates a Store with the given expiry; zero or negative selects
// DefaultExpiry (10 minutes).
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{c: db.Collection("login_pins"), expiry: expiry}
}

// Expiry returns the configured PIN lifetime.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the unique digest index, the TTL index for
// auto-cleanup, and the user lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code_hash", Value: 1}},
			Options: options.Index().SetName("idx_pins_code").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_pins_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_pins_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// IssueResult carries the plain-text code back to the bot for display.
type IssueResult struct {
	Code      string
	ExpiresAt time.Time
}

// Issue creates a new PIN for a principal, replacing any previous PIN
// for the same member (one live code per member). A code collision with
// another member's live PIN trips the unique index; we redraw.
func (s *Store) Issue(ctx context.Context, p token.Principal) (*IssueResult, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.expiry)

	_, _ = s.c.DeleteMany(ctx, bson.M{"user_id": p.DiscordID})

	var lastErr error
	for range issueRetries {
		code := generateCode()

		pin := Pin{
			ID:        primitive.NewObjectID(),
			UserID:    p.DiscordID,
			CodeHash:  hashCode(code),
			Name:      p.Name,
			Avatar:    p.Avatar,
			IsAdmin:   p.IsAdmin,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}

		_, err := s.c.InsertOne(ctx, pin)
		if err == nil {
			return &IssueResult{Code: code, ExpiresAt: expiresAt}, nil
		}
		if !wafflemongo.IsDup(err) {
			return nil, fmt.Errorf("insert pin: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("insert pin: %w", lastErr)
}

// Consume atomically matches and removes a live PIN, returning the
// bound principal. The find-and-delete is the single-use guard: under
// concurrent attempts exactly one caller gets the document, everyone
// else sees ErrNotFound. Because the record is gone before Consume
// returns, a failed session write downstream can never leave a
// reusable PIN. Expired codes fall out of the filter and read as
// not-found.
func (s *Store) Consume(ctx context.Context, code string) (token.Principal, error) {
	var pin Pin
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"code_hash":  hashCode(code),
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&pin)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return token.Principal{}, ErrNotFound
		}
		return token.Principal{}, err
	}

	return token.Principal{
		DiscordID: pin.UserID,
		Name:      pin.Name,
		Avatar:    pin.Avatar,
		IsAdmin:   pin.IsAdmin,
	}, nil
}

// hashCode digests a code for storage and lookup. PINs live ten
// minutes and the TTL index removes them, so an indexed digest is the
// right trade against the bcrypt-and-scan alternative.
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// generateCode returns a random 6-digit numeric code.
// Panics if the system's cryptographic random number generator fails.
func generateCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	code := (n % 900000) + 100000
	return fmt.Sprintf("%06d", code)
}
