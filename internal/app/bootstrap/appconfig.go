// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS, request limits). AppConfig is everything specific to
// IdeasLab: the MongoDB connection, session cookies, the Discord bot
// and OAuth credentials, captcha verification, and token signing.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: ideaslab-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Discord configuration
	DiscordBotToken     string // Bot token for the gateway connection
	DiscordGuildID      string // The one guild this deployment serves
	DiscordClientID     string // OAuth2 application client ID
	DiscordClientSecret string // OAuth2 application client secret

	// Captcha verification
	HCaptchaSecret string // hCaptcha secret key (blank disables verification)

	// Login token and PIN issuance
	TokenSecret string        // HMAC key for signed login tokens
	TokenExpiry time.Duration // Login token lifetime (default: 10m)
	PinExpiry   time.Duration // Login PIN lifetime (default: 10m)

	// Base URL for signup links and OAuth callbacks
	BaseURL string // e.g., "https://ideaslab.example.com" or "http://localhost:3000"
}
