// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/bot"
	commentstore "github.com/ideaslab/server/internal/app/store/comments"
	"github.com/ideaslab/server/internal/app/store/messagestats"
	"github.com/ideaslab/server/internal/app/store/oauthstate"
	"github.com/ideaslab/server/internal/app/store/pins"
	poststore "github.com/ideaslab/server/internal/app/store/posts"
	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/timeouts"
	"github.com/ideaslab/server/internal/app/system/token"
)

// ConnectDB establishes the MongoDB connection and builds the shared
// backends: the per-collection stores, the token issuer, and the
// Discord gateway session with its event handlers. The gateway is not
// opened here; Startup does that after the schema is in place.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Users:         userstore.New(db),
		Pins:          pins.New(db, appCfg.PinExpiry),
		Posts:         poststore.New(db),
		Comments:      commentstore.New(db),
		Settings:      settingsstore.New(db),
		Stats:         messagestats.New(db),
		States:        oauthstate.New(db),
	}

	deps.Tokens, err = token.New(appCfg.TokenSecret, appCfg.TokenExpiry)
	if err != nil {
		return DBDeps{}, fmt.Errorf("build token issuer: %w", err)
	}

	session, err := bot.NewSession(appCfg.DiscordBotToken)
	if err != nil {
		return DBDeps{}, err
	}
	deps.Guild = discord.NewClient(session, appCfg.DiscordGuildID)

	mirror := bot.NewMirror(deps.Posts, deps.Comments, deps.Stats, deps.Guild, logger)
	actions := bot.NewInteractions(deps.Users, deps.Settings, deps.Tokens, deps.Pins, deps.Guild, appCfg.BaseURL, logger)
	deps.Bot = bot.New(session, appCfg.DiscordGuildID, mirror, actions, logger)

	return deps, nil
}

// EnsureSchema creates the indexes every store relies on. The unique
// indexes double as concurrency guards (duplicate signups, double PIN
// redemption, re-mirrored messages), so startup fails rather than run
// without them.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := []struct {
		name string
		s    indexed
	}{
		{"users", deps.Users},
		{"pins", deps.Pins},
		{"posts", deps.Posts},
		{"comments", deps.Comments},
		{"settings", deps.Settings},
		{"message_stats", deps.Stats},
		{"oauth_states", deps.States},
	}
	for _, st := range stores {
		if err := st.s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", st.name, err)
		}
	}
	logger.Info("database indexes ensured")
	return nil
}
