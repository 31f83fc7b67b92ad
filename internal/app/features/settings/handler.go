// internal/app/features/settings/handler.go

// Package settings is the admin configuration surface. Each setting
// carries a type tag; updates are validated against the guild for the
// channel and role types so a typo'd id can never be saved and then
// break the welcome notification or role grant downstream.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/timeouts"
	"github.com/ideaslab/server/internal/domain/models"
)

// SettingsStore is the slice of the settings store this feature needs.
type SettingsStore interface {
	List(ctx context.Context) ([]models.Setting, error)
	Set(ctx context.Context, key, value, typ string) error
}

type Handler struct {
	Settings SettingsStore
	Guild    discord.GuildClient
	ErrLog   *apierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(settings SettingsStore, guild discord.GuildClient, errLog *apierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Settings: settings, Guild: guild, ErrLog: errLog, Log: logger}
}

type settingView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type updateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// HandleList returns every setting with its type tag, which the admin
// client uses to pick the editor widget.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Settings.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list settings", err)
		return
	}

	views := make([]settingView, 0, len(rows))
	for _, s := range rows {
		views = append(views, settingView{Key: s.Key, Value: s.Value, Type: s.Type})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// HandleUpdate upserts one setting after validating the value against
// its declared type.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode setting update", err, "invalid request body")
		return
	}

	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		apierrors.BadRequest(w, "setting key is required")
		return
	}
	if !models.ValidSettingType(req.Type) {
		apierrors.BadRequest(w, "unknown setting type")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.validateValue(ctx, req.Type, req.Value); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	if err := h.Settings.Set(ctx, req.Key, req.Value, req.Type); err != nil {
		h.ErrLog.LogServerError(w, r, "save setting", err)
		return
	}

	h.Log.Info("setting updated",
		zap.String("key", req.Key),
		zap.String("type", req.Type))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(successResponse{Success: true})
}

// validateValue checks a value against its type tag. An empty value is
// always allowed: it unconfigures the setting.
func (h *Handler) validateValue(ctx context.Context, typ, value string) error {
	if value == "" {
		return nil
	}
	switch typ {
	case models.SettingTypeChannel:
		ch, err := h.Guild.LookupChannel(ctx, value)
		if err != nil {
			if errors.Is(err, discord.ErrNotFound) {
				return errors.New("channel does not exist in the guild")
			}
			return err
		}
		if !ch.IsText {
			return errors.New("channel is not text-capable")
		}
	case models.SettingTypeRole:
		if _, err := h.Guild.LookupRole(ctx, value); err != nil {
			if errors.Is(err, discord.ErrNotFound) {
				return errors.New("role does not exist in the guild")
			}
			return err
		}
	}
	return nil
}
