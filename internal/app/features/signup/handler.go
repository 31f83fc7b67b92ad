// internal/app/features/signup/handler.go

// Package signup gates new member registration: captcha first, then the
// registered/handle checks, then the create. The unique indexes on
// discord_id and handle are the real guarantees; the explicit checks
// only exist to give callers a precise message before the insert.
package signup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/inputval"
	"github.com/ideaslab/server/internal/app/system/profilesync"
	"github.com/ideaslab/server/internal/app/system/timeouts"
	"github.com/ideaslab/server/internal/domain/models"
)

// UserStore is the slice of the users store signup needs.
type UserStore interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// SettingsReader reads the welcome-notification settings.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// CaptchaVerifier checks a captcha response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, responseToken string) bool
}

type Handler struct {
	Users    UserStore
	Settings SettingsReader
	Captcha  CaptchaVerifier
	Guild    discord.GuildClient
	Sync     *profilesync.Syncer
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
	BaseURL  string // public site base, for the profile link in the welcome embed
}

func NewHandler(
	users UserStore,
	settings SettingsReader,
	captcha CaptchaVerifier,
	guild discord.GuildClient,
	sync *profilesync.Syncer,
	errLog *apierrors.ErrorLogger,
	baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:    users,
		Settings: settings,
		Captcha:  captcha,
		Guild:    guild,
		Sync:     sync,
		ErrLog:   errLog,
		Log:      logger,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

type signupRequest struct {
	Name         string               `json:"name"`
	Handle       string               `json:"handle"`
	Introduce    string               `json:"introduce"`
	Roles        []string             `json:"roles"`
	Links        []models.ProfileLink `json:"links"`
	Captcha      string               `json:"captcha"`
	RegisterFrom string               `json:"registerFrom"`
}

type checkHandleRequest struct {
	Handle string `json:"handle"`
}

type checkHandleResponse struct {
	Available bool `json:"available"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleSignup runs the registration workflow for the session
// principal. Order matters: nothing after a failed captcha runs, and
// the welcome notification can only fail after the user row exists.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	u, err := sessionauth.SessionPrincipal(r)
	if err != nil {
		apierrors.Unauthenticated(w)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode signup request", err, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "signup flow")
	defer cancel()

	if !h.Captcha.Verify(ctx, req.Captcha) {
		apierrors.BadRequest(w, "captcha failed")
		return
	}

	if _, err := h.Users.GetByDiscordID(ctx, u.ID); err == nil {
		apierrors.BadRequest(w, "already registered")
		return
	} else if !errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.LogServerError(w, r, "check existing registration", err)
		return
	}

	handle := strings.TrimSpace(req.Handle)
	if err := inputval.Handle(handle); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	taken, err := h.Users.HandleExists(ctx, handle)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check handle", err)
		return
	}
	if taken {
		apierrors.BadRequest(w, "handle already taken")
		return
	}

	name, err := inputval.Name(req.Name)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	introduce, err := inputval.Introduce(req.Introduce)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if err := inputval.Links(req.Links); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	member, err := h.Guild.FetchMember(ctx, u.ID)
	if err != nil {
		if errors.Is(err, discord.ErrNotFound) {
			apierrors.BadRequest(w, "not a guild member")
			return
		}
		h.ErrLog.LogServerError(w, r, "fetch guild member", err)
		return
	}

	roles, err := h.resolveRoles(ctx, req.Roles)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	h.Sync.SyncNickname(ctx, member, name)

	registerFrom := req.RegisterFrom
	if registerFrom == "" {
		registerFrom = "web"
	}
	created, err := h.Users.Create(ctx, models.User{
		DiscordID:    u.ID,
		Handle:       handle,
		Name:         name,
		Avatar:       member.AvatarURL,
		Introduce:    introduce,
		Roles:        roles,
		Links:        req.Links,
		IsAdmin:      member.IsAdmin,
		RegisterFrom: registerFrom,
	})
	if err != nil {
		// The index verdict wins over the pre-checks under concurrency.
		switch {
		case errors.Is(err, userstore.ErrDuplicateDiscordID):
			apierrors.BadRequest(w, "already registered")
		case errors.Is(err, userstore.ErrDuplicateHandle):
			apierrors.BadRequest(w, "handle already taken")
		default:
			h.ErrLog.LogServerError(w, r, "create user", err)
		}
		return
	}

	h.Log.Info("user registered",
		zap.String("discord_id", created.DiscordID),
		zap.String("handle", created.Handle),
		zap.String("register_from", created.RegisterFrom))

	h.sendWelcome(ctx, created).Log(h.Log, zap.String("discord_id", created.DiscordID))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(successResponse{Success: true})
}

// HandleCheckHandle reports handle availability. Malformed handles are
// simply unavailable; this endpoint never errors on user input.
func (h *Handler) HandleCheckHandle(w http.ResponseWriter, r *http.Request) {
	var req checkHandleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode handle check request", err, "invalid request body")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	handle := strings.TrimSpace(req.Handle)
	if err := inputval.Handle(handle); err != nil {
		_ = json.NewEncoder(w).Encode(checkHandleResponse{Available: false})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	taken, err := h.Users.HandleExists(ctx, handle)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check handle", err)
		return
	}
	_ = json.NewEncoder(w).Encode(checkHandleResponse{Available: !taken})
}

// resolveRoles validates each requested role id against the guild.
func (h *Handler) resolveRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	roles := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		if _, err := h.Guild.LookupRole(ctx, id); err != nil {
			if errors.Is(err, discord.ErrNotFound) {
				return nil, errors.New("unknown role")
			}
			return nil, err
		}
		roles = append(roles, id)
	}
	return roles, nil
}

// settingOrEmpty reads a setting, treating "not configured" as empty.
func (h *Handler) settingOrEmpty(ctx context.Context, key string) (string, error) {
	v, err := h.Settings.Get(ctx, key)
	if errors.Is(err, settingsstore.ErrNotFound) {
		return "", nil
	}
	return v, err
}
