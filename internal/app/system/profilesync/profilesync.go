// internal/app/system/profilesync/profilesync.go

// Package profilesync reconciles guild-member state with the stored
// user record. Both directions are best-effort: a stale cached avatar
// or a failed rename must never fail the operation that triggered the
// sync.
package profilesync

import (
	"context"

	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/system/besteffort"
	"github.com/ideaslab/server/internal/app/system/discord"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	"github.com/ideaslab/server/internal/domain/models"
)

// UserStore is the slice of the users store the syncer needs.
type UserStore interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
	UpdateAvatar(ctx context.Context, discordID, avatar string) error
}

// GuildRenamer renames members on the guild side.
type GuildRenamer interface {
	RenameMember(ctx context.Context, memberID, name string) error
}

// Syncer applies guild state to the store and vice versa.
type Syncer struct {
	Users UserStore
	Guild GuildRenamer
	Log   *zap.Logger
}

// New creates a Syncer.
func New(users UserStore, guild GuildRenamer, logger *zap.Logger) *Syncer {
	return &Syncer{Users: users, Guild: guild, Log: logger}
}

// SyncAvatar refreshes the stored avatar copy when the canonical guild
// avatar differs. Unregistered members are a no-op.
func (s *Syncer) SyncAvatar(ctx context.Context, m discord.Member) besteffort.Result {
	return besteffort.Do("sync avatar", func() error {
		u, err := s.Users.GetByDiscordID(ctx, m.ID)
		if err != nil {
			if err == userstore.ErrNotFound {
				return nil
			}
			return err
		}
		if u.Avatar == m.AvatarURL {
			return nil
		}
		return s.Users.UpdateAvatar(ctx, m.ID, m.AvatarURL)
	}).Log(s.Log, zap.String("discord_id", m.ID))
}

// SyncNickname renames the guild member when its display name differs
// from the desired one. The bot may lack permission over some members;
// that failure is logged and dropped.
func (s *Syncer) SyncNickname(ctx context.Context, m discord.Member, desired string) besteffort.Result {
	return besteffort.Do("sync nickname", func() error {
		if m.DisplayName == desired {
			return nil
		}
		return s.Guild.RenameMember(ctx, m.ID, desired)
	}).Log(s.Log, zap.String("discord_id", m.ID))
}
