// internal/app/features/profile/handler.go

// Package profile serves the signed-in member's profile: reading it
// (with a best-effort avatar refresh against the guild) and updating
// the editable fields.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/inputval"
	"github.com/ideaslab/server/internal/app/system/profilesync"
	"github.com/ideaslab/server/internal/app/system/timeouts"
	"github.com/ideaslab/server/internal/domain/models"
)

// UserStore is the slice of the users store this feature needs.
type UserStore interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	UpdateProfile(ctx context.Context, discordID string, upd userstore.ProfileUpdate) error
}

// StatsReader reads the per-member message counter.
type StatsReader interface {
	Get(ctx context.Context, userID string) (models.MessageStat, error)
}

type Handler struct {
	Users  UserStore
	Stats  StatsReader
	Guild  discord.GuildClient
	Sync   *profilesync.Syncer
	ErrLog *apierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(
	users UserStore,
	stats StatsReader,
	guild discord.GuildClient,
	sync *profilesync.Syncer,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:  users,
		Stats:  stats,
		Guild:  guild,
		Sync:   sync,
		ErrLog: errLog,
		Log:    logger,
	}
}

// profileView is the signed-in member's own profile. Registered is
// false (and the rest zero) when the session principal has no user row
// yet, which tells the client to route into signup.
type profileView struct {
	Registered   bool                 `json:"registered"`
	DiscordID    string               `json:"discord_id,omitempty"`
	Handle       string               `json:"handle,omitempty"`
	Name         string               `json:"name,omitempty"`
	Avatar       string               `json:"avatar,omitempty"`
	Introduce    string               `json:"introduce,omitempty"`
	Roles        []string             `json:"roles,omitempty"`
	Links        []models.ProfileLink `json:"links,omitempty"`
	IsAdmin      bool                 `json:"is_admin,omitempty"`
	MessageCount int64                `json:"message_count"`
}

type updateRequest struct {
	Name      string               `json:"name"`
	Handle    string               `json:"handle"`
	Introduce string               `json:"introduce"`
	Roles     []string             `json:"roles"`
	Links     []models.ProfileLink `json:"links"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleGetProfile serves the current member's profile. The cached
// avatar is refreshed against the guild first; that refresh failing
// only means a slightly stale avatar in the response.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := sessionauth.SessionPrincipal(r)
	if err != nil {
		apierrors.Unauthenticated(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if member, merr := h.Guild.FetchMember(ctx, principal.ID); merr == nil {
		h.Sync.SyncAvatar(ctx, member)
	}

	u, err := h.Users.GetByDiscordID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			writeJSON(w, profileView{Registered: false})
			return
		}
		h.ErrLog.LogServerError(w, r, "load profile", err)
		return
	}

	stat, err := h.Stats.Get(ctx, principal.ID)
	if err != nil {
		h.Log.Warn("load message count", zap.Error(err), zap.String("discord_id", principal.ID))
	}

	writeJSON(w, profileView{
		Registered:   true,
		DiscordID:    u.DiscordID,
		Handle:       u.Handle,
		Name:         u.Name,
		Avatar:       u.Avatar,
		Introduce:    u.Introduce,
		Roles:        u.Roles,
		Links:        u.Links,
		IsAdmin:      u.IsAdmin,
		MessageCount: stat.Count,
	})
}

// HandleUpdateProfile rewrites the editable profile fields. Only
// registered members may update; the handle stays unique via the store.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, err := sessionauth.SessionPrincipal(r)
	if err != nil {
		apierrors.Unauthenticated(w)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile update", err, "invalid request body")
		return
	}

	handle := strings.TrimSpace(req.Handle)
	if err := inputval.Handle(handle); err != nil {
		apierrors.BadRequest(w, err.Error())
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	current, err := h.Users.GetByDiscordID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.BadRequest(w, "not registered")
			return
		}
		h.ErrLog.LogServerError(w, r, "load profile for update", err)
		return
	}

	roles, err := h.resolveRoles(ctx, req.Roles)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	avatar := current.Avatar
	member, merr := h.Guild.FetchMember(ctx, principal.ID)
	if merr == nil {
		avatar = member.AvatarURL
	}

	upd := userstore.ProfileUpdate{
		Name:      name,
		Handle:    handle,
		Introduce: introduce,
		Avatar:    avatar,
		Roles:     roles,
		Links:     req.Links,
	}
	if err := h.Users.UpdateProfile(ctx, principal.ID, upd); err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateHandle):
			apierrors.BadRequest(w, "handle already taken")
		case errors.Is(err, userstore.ErrNotFound):
			apierrors.BadRequest(w, "not registered")
		default:
			h.ErrLog.LogServerError(w, r, "update profile", err)
		}
		return
	}

	if merr == nil {
		h.Sync.SyncNickname(ctx, member, name)
	}

	h.Log.Info("profile updated",
		zap.String("discord_id", principal.ID),
		zap.String("handle", handle))

	writeJSON(w, successResponse{Success: true})
}

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

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
