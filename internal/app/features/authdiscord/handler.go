// internal/app/features/authdiscord/handler.go

// Package authdiscord implements browser login through Discord OAuth2.
// It is the third login path next to PINs and tokens: consent screen,
// one-time state, code exchange, then a guild-membership check before a
// session is issued. Non-members of the guild are turned away.
package authdiscord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/timeouts"
)

// Discord OAuth2 endpoints.
var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

const userInfoURL = "https://discord.com/api/users/@me"

// stateExpiry bounds how long a pending consent screen stays valid.
const stateExpiry = 10 * time.Minute

// StateStore persists one-time OAuth state tokens.
type StateStore interface {
	Save(ctx context.Context, state, returnURL string, expiresAt time.Time) error
	Validate(ctx context.Context, state string) (returnURL string, valid bool, err error)
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	States     StateStore
	Guild      discord.GuildClient

	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserInfoURL default to Discord's; tests point them
	// at a local server.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

func NewHandler(
	sessionMgr *auth.SessionManager,
	states StateStore,
	guild discord.GuildClient,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		States:       states,
		Guild:        guild,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/discord/callback",
		Endpoint:     discordEndpoint,
		UserInfoURL:  userInfoURL,
	}
}

// IsConfigured reports whether OAuth login is usable.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"identify"},
		Endpoint:     h.Endpoint,
	}
}

// ServeLogin redirects to the Discord consent screen with a stored
// one-time state.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("discord oauth not configured")
		http.Redirect(w, r, "/login?error=oauth_not_configured", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, state, returnURL, time.Now().UTC().Add(stateExpiry)); err != nil {
		h.Log.Error("save oauth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, h.oauth2Config().AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// ServeCallback finishes the flow: state, code exchange, identity
// fetch, guild-membership check, session.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("discord oauth denied", zap.String("error", errParam))
		http.Redirect(w, r, "/login?error=oauth_denied", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	state := r.URL.Query().Get("state")
	if state == "" {
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}
	returnURL, valid, err := h.States.Validate(ctx, state)
	if err != nil {
		h.Log.Error("validate oauth state", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired oauth state")
		http.Redirect(w, r, "/login?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, "/login?error=invalid_code", http.StatusSeeOther)
		return
	}
	tok, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("exchange oauth code", zap.Error(err))
		http.Redirect(w, r, "/login?error=token_exchange", http.StatusSeeOther)
		return
	}

	identity, err := h.fetchIdentity(ctx, tok)
	if err != nil {
		h.Log.Error("fetch discord identity", zap.Error(err))
		http.Redirect(w, r, "/login?error=user_info", http.StatusSeeOther)
		return
	}

	// OAuth proves who the browser is, not that they belong here.
	member, err := h.Guild.FetchMember(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, discord.ErrNotFound) {
			h.Log.Info("oauth login from non-member", zap.String("discord_id", identity.ID))
			http.Redirect(w, r, "/login?error=not_a_member", http.StatusSeeOther)
			return
		}
		h.Log.Error("fetch guild member", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.SessionMgr.Login(w, r, member.ID, member.IsAdmin); err != nil {
		h.Log.Error("persist session", zap.Error(err))
		http.Redirect(w, r, "/login?error=internal", http.StatusSeeOther)
		return
	}

	h.Log.Info("user logged in via oauth",
		zap.String("discord_id", member.ID),
		zap.Bool("is_admin", member.IsAdmin))

	if returnURL == "" {
		returnURL = "/"
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

// discordIdentity is the slice of /users/@me the login needs.
type discordIdentity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) fetchIdentity(ctx context.Context, tok *oauth2.Token) (*discordIdentity, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity endpoint returned %d", resp.StatusCode)
	}

	var identity discordIdentity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if identity.ID == "" {
		return nil, errors.New("identity response missing id")
	}
	return &identity, nil
}
