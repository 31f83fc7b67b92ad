// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for IdeasLab.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: IDEASLAB_MONGO_URI, IDEASLAB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "ideaslab", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "ideaslab-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Discord bot and OAuth configuration
	{Name: "discord_bot_token", Default: "", Desc: "Discord bot token for the gateway connection"},
	{Name: "discord_guild_id", Default: "", Desc: "Discord guild (server) ID this deployment serves"},
	{Name: "discord_client_id", Default: "", Desc: "Discord OAuth2 client ID (blank disables browser OAuth login)"},
	{Name: "discord_client_secret", Default: "", Desc: "Discord OAuth2 client secret"},

	// Captcha verification
	{Name: "hcaptcha_secret", Default: "", Desc: "hCaptcha secret key (blank disables captcha verification)"},

	// Login token and PIN issuance
	{Name: "token_secret", Default: "", Desc: "HMAC signing key for login tokens"},
	{Name: "token_expiry", Default: "10m", Desc: "Login token lifetime (e.g., 10m, 1h)"},
	{Name: "pin_expiry", Default: "10m", Desc: "Login PIN lifetime (e.g., 10m, 1h)"},

	// Base URL for signup links and OAuth callbacks
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for signup links and OAuth callbacks"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, IDEASLAB_* for app), and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "IDEASLAB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		DiscordBotToken:     appValues.String("discord_bot_token"),
		DiscordGuildID:      appValues.String("discord_guild_id"),
		DiscordClientID:     appValues.String("discord_client_id"),
		DiscordClientSecret: appValues.String("discord_client_secret"),

		HCaptchaSecret: appValues.String("hcaptcha_secret"),

		TokenSecret: appValues.String("token_secret"),
		TokenExpiry: appValues.Duration("token_expiry", 10*time.Minute),
		PinExpiry:   appValues.Duration("pin_expiry", 10*time.Minute),

		BaseURL: strings.TrimRight(appValues.String("base_url"), "/"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// IdeasLab cannot operate without the bot's guild connection or the
// token signing key, so those are enforced here rather than failing
// later on the first request.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.DiscordBotToken == "" {
		return fmt.Errorf("discord_bot_token is required")
	}
	if appCfg.DiscordGuildID == "" {
		return fmt.Errorf("discord_guild_id is required")
	}
	if appCfg.TokenSecret == "" {
		return fmt.Errorf("token_secret is required")
	}

	// OAuth login is optional, but a half-configured pair is a mistake.
	if (appCfg.DiscordClientID == "") != (appCfg.DiscordClientSecret == "") {
		return fmt.Errorf("discord_client_id and discord_client_secret must be set together")
	}

	if appCfg.HCaptchaSecret == "" {
		logger.Warn("hcaptcha_secret is not set; captcha verification is disabled")
	}

	return nil
}
