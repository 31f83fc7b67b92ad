// internal/app/features/auth/handler.go

// Package auth exposes the login procedures: PIN login, token login,
// and logout. Both login paths resolve a guild principal first and only
// then bind the session, so a session is never issued for a credential
// that failed to verify.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	"github.com/ideaslab/server/internal/app/store/pins"
	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/ratelimit"
	"github.com/ideaslab/server/internal/app/system/timeouts"
	"github.com/ideaslab/server/internal/app/system/token"
)

// PinConsumer redeems single-use login PINs.
type PinConsumer interface {
	Consume(ctx context.Context, code string) (token.Principal, error)
}

// TokenVerifier validates bot-issued login tokens.
type TokenVerifier interface {
	Verify(tokenString string) (token.Principal, error)
}

type Handler struct {
	Pins       PinConsumer
	Tokens     TokenVerifier
	SessionMgr *sessionauth.SessionManager
	Guard      *ratelimit.Limiter // optional per-IP attempt limiter
	ErrLog     *apierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(
	pinStore PinConsumer,
	tokens TokenVerifier,
	sessionMgr *sessionauth.SessionManager,
	errLog *apierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Pins:       pinStore,
		Tokens:     tokens,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginPinRequest struct {
	Pin string `json:"pin"`
}

type loginTokenRequest struct {
	Token string `json:"token"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleLoginPin redeems a 6-digit PIN for a session. The PIN is
// consumed atomically in the store, so a second attempt with the same
// code reads as invalid no matter how close the race.
func (h *Handler) HandleLoginPin(w http.ResponseWriter, r *http.Request) {
	if !h.allowAttempt(r) {
		apierrors.Write(w, http.StatusTooManyRequests, apierrors.CodeRateLimited, "too many login attempts, try again in a minute")
		return
	}

	var req loginPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode pin login request", err, "invalid request body")
		return
	}
	code := strings.TrimSpace(req.Pin)
	if len(code) != pins.CodeLength {
		apierrors.BadRequest(w, "invalid or expired pin")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	principal, err := h.Pins.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, pins.ErrNotFound) {
			apierrors.BadRequest(w, "invalid or expired pin")
			return
		}
		h.ErrLog.LogServerError(w, r, "consume login pin", err)
		return
	}

	h.finishLogin(w, r, principal)
}

// HandleLoginToken verifies a bot-issued token and binds the session.
// Unlike a PIN, a token is not consumed: it stays valid until its
// expiry claim.
func (h *Handler) HandleLoginToken(w http.ResponseWriter, r *http.Request) {
	if !h.allowAttempt(r) {
		apierrors.Write(w, http.StatusTooManyRequests, apierrors.CodeRateLimited, "too many login attempts, try again in a minute")
		return
	}

	var req loginTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode token login request", err, "invalid request body")
		return
	}

	principal, err := h.Tokens.Verify(strings.TrimSpace(req.Token))
	if err != nil {
		apierrors.BadRequest(w, "invalid or expired token")
		return
	}

	h.finishLogin(w, r, principal)
}

// HandleLogout destroys the session. Mounted behind RequireSignedIn.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.Logout(w, r); err != nil {
		h.ErrLog.LogServerError(w, r, "destroy session", err)
		return
	}

	u, _ := sessionauth.CurrentUser(r)
	if u != nil {
		h.Log.Info("user logged out", zap.String("discord_id", u.ID))
	}

	writeSuccess(w)
}

// allowAttempt consults the guard, if one is configured.
func (h *Handler) allowAttempt(r *http.Request) bool {
	return h.Guard == nil || h.Guard.Allow(ratelimit.ClientIP(r))
}

func (h *Handler) finishLogin(w http.ResponseWriter, r *http.Request, p token.Principal) {
	if err := h.SessionMgr.Login(w, r, p.DiscordID, p.IsAdmin); err != nil {
		h.ErrLog.LogServerError(w, r, "persist session", err)
		return
	}

	if h.Guard != nil {
		h.Guard.Reset(ratelimit.ClientIP(r))
	}

	h.Log.Info("user logged in",
		zap.String("discord_id", p.DiscordID),
		zap.Bool("is_admin", p.IsAdmin))

	writeSuccess(w)
}

func writeSuccess(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(successResponse{Success: true})
}
