// internal/app/bot/interactions.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/store/pins"
	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/token"
	"github.com/ideaslab/server/internal/domain/models"
)

// Button custom ids the bot responds to.
const (
	ButtonRegisterComplete = "register-complete"
	ButtonLoginPin         = "login-pin"
)

// UserReader checks whether a member is already registered.
type UserReader interface {
	GetByDiscordID(ctx context.Context, discordID string) (*models.User, error)
}

// SettingsReader reads the configured member role.
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// TokenIssuer signs signup/login tokens.
type TokenIssuer interface {
	Issue(p token.Principal) (string, time.Time, error)
}

// PinIssuer mints single-use login PINs.
type PinIssuer interface {
	Issue(ctx context.Context, p token.Principal) (*pins.IssueResult, error)
}

// Interactions answers the guild-side buttons. Each method returns the
// ephemeral response content; the gateway glue delivers it.
type Interactions struct {
	Users    UserReader
	Settings SettingsReader
	Tokens   TokenIssuer
	Pins     PinIssuer
	Guild    discord.GuildClient
	BaseURL  string
	Log      *zap.Logger
}

// NewInteractions creates the button handlers.
func NewInteractions(
	users UserReader,
	settings SettingsReader,
	tokens TokenIssuer,
	pinStore PinIssuer,
	guild discord.GuildClient,
	baseURL string,
	logger *zap.Logger,
) *Interactions {
	return &Interactions{
		Users:    users,
		Settings: settings,
		Tokens:   tokens,
		Pins:     pinStore,
		Guild:    guild,
		BaseURL:  baseURL,
		Log:      logger,
	}
}

// RegisterComplete answers the registration button. A member who
// already has a user row is greeted and re-granted the configured
// member role; anyone else gets a fresh signup link bound to a
// short-lived token.
func (x *Interactions) RegisterComplete(ctx context.Context, member discord.Member) (*discordgo.InteractionResponseData, error) {
	u, err := x.Users.GetByDiscordID(ctx, member.ID)
	if err == nil {
		x.grantMemberRole(ctx, member.ID)
		return ephemeral(fmt.Sprintf("Welcome back, %s! You are already registered.", u.Name)), nil
	}
	if !errors.Is(err, userstore.ErrNotFound) {
		return nil, fmt.Errorf("check registration: %w", err)
	}

	signed, expiresAt, err := x.Tokens.Issue(token.Principal{
		DiscordID: member.ID,
		Name:      member.DisplayName,
		Avatar:    member.AvatarURL,
		IsAdmin:   member.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("issue signup token: %w", err)
	}

	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	resp := ephemeral("")
	resp.Embeds = []*discordgo.MessageEmbed{{
		Title:       "Finish your registration",
		Description: fmt.Sprintf("%s/signup?token=%s", x.BaseURL, signed),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("This link expires in %d minutes.", minutes),
		},
	}}
	return resp, nil
}

// LoginPin answers the PIN button with a fresh single-use code.
func (x *Interactions) LoginPin(ctx context.Context, member discord.Member) (*discordgo.InteractionResponseData, error) {
	res, err := x.Pins.Issue(ctx, token.Principal{
		DiscordID: member.ID,
		Name:      member.DisplayName,
		Avatar:    member.AvatarURL,
		IsAdmin:   member.IsAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("issue login pin: %w", err)
	}

	minutes := int(time.Until(res.ExpiresAt).Round(time.Minute).Minutes())
	return ephemeral(fmt.Sprintf("Your login PIN is **%s**. It expires in %d minutes and works once.", res.Code, minutes)), nil
}

// grantMemberRole re-applies the configured member role, best-effort.
func (x *Interactions) grantMemberRole(ctx context.Context, memberID string) {
	roleID, err := x.Settings.Get(ctx, models.SettingUserRole)
	if errors.Is(err, settingsstore.ErrNotFound) || roleID == "" {
		return
	}
	if err != nil {
		x.Log.Warn("read member role setting", zap.Error(err))
		return
	}
	if err := x.Guild.AddMemberRole(ctx, memberID, roleID); err != nil {
		x.Log.Warn("grant member role",
			zap.Error(err),
			zap.String("discord_id", memberID),
			zap.String("role_id", roleID))
	}
}

func ephemeral(content string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}
