// internal/app/bot/bot.go
package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/timeouts"
)

// NewSession builds the gateway session with the intents the mirror and
// the interaction buttons need. The session is not opened here;
// Bot.Start does that once the handlers are attached.
func NewSession(botToken string) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is empty")
	}
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	s.State.MaxMessageCount = 0
	return s, nil
}

// Bot owns the gateway connection and dispatches events to the mirror
// and the interaction handlers. Events from other guilds are dropped.
type Bot struct {
	session *discordgo.Session
	guildID string
	mirror  *Mirror
	actions *Interactions
	log     *zap.Logger
}

// New wires the event handlers onto the session.
func New(session *discordgo.Session, guildID string, mirror *Mirror, actions *Interactions, logger *zap.Logger) *Bot {
	b := &Bot{
		session: session,
		guildID: guildID,
		mirror:  mirror,
		actions: actions,
		log:     logger,
	}
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onInteractionCreate)
	return b
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}
	b.log.Info("gateway connected", zap.String("guild_id", b.guildID))
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// Connected reports whether the gateway handshake has completed.
func (b *Bot) Connected() bool {
	return b.session.DataReady
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID != b.guildID {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()
	b.mirror.HandleMessage(ctx, m)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != b.guildID || i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	if customID != ButtonRegisterComplete && customID != ButtonLoginPin {
		return
	}

	member := interactionMember(i)
	if member.ID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()

	var (
		data *discordgo.InteractionResponseData
		err  error
	)
	switch customID {
	case ButtonRegisterComplete:
		data, err = b.actions.RegisterComplete(ctx, member)
	case ButtonLoginPin:
		data, err = b.actions.LoginPin(ctx, member)
	}
	if err != nil {
		b.log.Error("handle button interaction",
			zap.Error(err),
			zap.String("custom_id", customID),
			zap.String("discord_id", member.ID))
		data = ephemeral("Something went wrong. Please try again in a moment.")
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}); err != nil {
		b.log.Error("send interaction response", zap.Error(err), zap.String("custom_id", customID))
	}
}

// interactionMember maps the interaction payload onto the guild-member
// shape the handlers expect. The gateway includes resolved member
// permissions on interactions, so the admin flag comes straight from
// the payload rather than a role lookup.
func interactionMember(i *discordgo.InteractionCreate) discord.Member {
	m := i.Member
	if m == nil || m.User == nil {
		return discord.Member{}
	}

	name := m.Nick
	if name == "" {
		name = m.User.GlobalName
		if name == "" {
			name = m.User.Username
		}
	}

	return discord.Member{
		ID:          m.User.ID,
		Username:    m.User.Username,
		DisplayName: name,
		AvatarURL:   m.AvatarURL(""),
		Roles:       m.Roles,
		IsAdmin:     m.Permissions&discordgo.PermissionAdministrator != 0,
	}
}
