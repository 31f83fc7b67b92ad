// internal/app/features/signup/welcome.go
package signup

import (
	"context"
	"fmt"
	"strings"

	"github.com/ideaslab/server/internal/app/system/besteffort"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/domain/models"
)

// sendWelcome posts the new-member embed to the configured welcome
// channel. Every failure mode here is silent toward the caller: signup
// already succeeded, and a missing or misconfigured channel must not
// undo that.
func (h *Handler) sendWelcome(ctx context.Context, u models.User) besteffort.Result {
	return besteffort.Do("send welcome notification", func() error {
		channelID, err := h.settingOrEmpty(ctx, models.SettingWelcomeChannel)
		if err != nil {
			return err
		}
		if channelID == "" {
			return nil // welcome notifications not configured
		}

		ch, err := h.Guild.LookupChannel(ctx, channelID)
		if err != nil {
			return fmt.Errorf("welcome channel %s: %w", channelID, err)
		}
		if !ch.IsText {
			return fmt.Errorf("welcome channel %s is not text-capable", channelID)
		}

		message, err := h.settingOrEmpty(ctx, models.SettingWelcomeMessage)
		if err != nil {
			return err
		}

		return h.Guild.SendEmbed(ctx, ch.ID, h.welcomeEmbed(u, message))
	})
}

// welcomeEmbed builds the embed. The welcomeMessage setting may carry a
// {name} placeholder.
func (h *Handler) welcomeEmbed(u models.User, message string) discord.Embed {
	title := strings.ReplaceAll(message, "{name}", u.Name)
	if title == "" {
		title = fmt.Sprintf("Welcome, %s!", u.Name)
	}

	e := discord.Embed{
		Title:       title,
		Description: u.Introduce,
		URL:         h.profileURL(u.Handle),
		AuthorName:  u.Name,
		AuthorURL:   h.profileURL(u.Handle),
		AuthorIcon:  u.Avatar,
	}
	for _, l := range u.Links {
		e.Fields = append(e.Fields, discord.EmbedField{Name: l.Name, Value: l.URL})
	}
	return e
}

func (h *Handler) profileURL(handle string) string {
	if h.BaseURL == "" {
		return ""
	}
	return h.BaseURL + "/@" + handle
}
