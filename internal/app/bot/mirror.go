// internal/app/bot/mirror.go

// Package bot runs the guild-facing side of the platform: the gateway
// connection, the message mirror that copies forum replies into the
// comment store, and the button interactions for registration and PIN
// login.
package bot

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	commentstore "github.com/ideaslab/server/internal/app/store/comments"
	poststore "github.com/ideaslab/server/internal/app/store/posts"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/domain/models"
)

// PostStore looks up tracked forum threads.
type PostStore interface {
	GetByThreadID(ctx context.Context, threadID string) (*models.Post, error)
}

// CommentStore inserts mirrored replies.
type CommentStore interface {
	Create(ctx context.Context, c models.Comment) (models.Comment, error)
}

// StatsCounter bumps the per-member message counter.
type StatsCounter interface {
	Increment(ctx context.Context, userID string) error
}

// Mirror copies guild forum replies into the comment store. Everything
// it does is a side effect of ordinary chat activity, so it never
// surfaces an error to the guild; failures are logged and dropped.
type Mirror struct {
	Posts    PostStore
	Comments CommentStore
	Stats    StatsCounter
	Guild    discord.GuildClient
	Log      *zap.Logger
}

// NewMirror creates a Mirror.
func NewMirror(posts PostStore, comments CommentStore, stats StatsCounter, guild discord.GuildClient, logger *zap.Logger) *Mirror {
	return &Mirror{Posts: posts, Comments: comments, Stats: stats, Guild: guild, Log: logger}
}

// HandleMessage processes one inbound guild message. Bot accounts are
// ignored outright. The activity counter is bumped for every human
// message regardless of what the mirroring filters below decide.
func (m *Mirror) HandleMessage(ctx context.Context, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}

	if err := m.Stats.Increment(ctx, msg.Author.ID); err != nil {
		m.Log.Warn("increment message counter", zap.Error(err), zap.String("discord_id", msg.Author.ID))
	}

	if msg.Type != discordgo.MessageTypeDefault && msg.Type != discordgo.MessageTypeReply {
		return
	}

	if !m.isForumThread(ctx, msg.ChannelID) {
		return
	}

	post, err := m.Posts.GetByThreadID(ctx, msg.ChannelID)
	if err != nil {
		if !errors.Is(err, poststore.ErrNotFound) {
			m.Log.Warn("look up tracked thread", zap.Error(err), zap.String("thread_id", msg.ChannelID))
		}
		return // untracked thread
	}

	parentID := ""
	if msg.MessageReference != nil {
		parentID = msg.MessageReference.MessageID
	}

	_, err = m.Comments.Create(ctx, models.Comment{
		DiscordID: msg.ID,
		PostID:    post.ID,
		AuthorID:  msg.Author.ID,
		Content:   msg.Content,
		ParentID:  parentID,
	})
	if err != nil {
		// Redelivered gateway events trip the unique message-id index.
		if errors.Is(err, commentstore.ErrDuplicateMessage) {
			return
		}
		m.Log.Warn("mirror comment",
			zap.Error(err),
			zap.String("message_id", msg.ID),
			zap.String("thread_id", msg.ChannelID))
	}
}

// isForumThread reports whether the channel is a public thread whose
// parent is a forum channel.
func (m *Mirror) isForumThread(ctx context.Context, channelID string) bool {
	ch, err := m.Guild.LookupChannel(ctx, channelID)
	if err != nil || !ch.IsPublicThread || ch.ParentID == "" {
		return false
	}
	parent, err := m.Guild.LookupChannel(ctx, ch.ParentID)
	return err == nil && parent.IsForum
}
