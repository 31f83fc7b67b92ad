// internal/app/system/discord/discord.go

// Package discord wraps the guild platform behind a small interface so
// login, signup, and profile logic can be exercised in tests without a
// live gateway connection. The concrete implementation is backed by
// bwmarrin/discordgo and scoped to a single guild.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound is returned when a member, channel, or role does not exist
// in the guild.
var ErrNotFound = errors.New("not found in guild")

// Member is the canonical guild-member state the platform cares about.
type Member struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
	Roles       []string
	IsAdmin     bool
}

// Channel is a guild channel with just enough shape to route messages
// and classify forum threads.
type Channel struct {
	ID             string
	Name           string
	ParentID       string // owning channel for threads, empty otherwise
	IsText         bool   // text-capable: messages can be sent to it
	IsPublicThread bool
	IsForum        bool
}

// Embed is a rich notification message. It maps onto a Discord embed
// but keeps callers independent of discordgo types.
type Embed struct {
	Title       string
	Description string
	URL         string
	AuthorName  string
	AuthorURL   string
	AuthorIcon  string
	Fields      []EmbedField
	Footer      string
}

// EmbedField is one name/value pair on an Embed.
type EmbedField struct {
	Name  string
	Value string
}

// GuildClient is the guild platform boundary: member lookup and rename,
// channel lookup, message sends, and role grants. Implementations must
// be safe for concurrent use.
type GuildClient interface {
	FetchMember(ctx context.Context, memberID string) (Member, error)
	RenameMember(ctx context.Context, memberID, name string) error
	AddMemberRole(ctx context.Context, memberID, roleID string) error
	LookupChannel(ctx context.Context, channelID string) (Channel, error)
	LookupRole(ctx context.Context, roleID string) (string, error) // returns role name
	SendEmbed(ctx context.Context, channelID string, e Embed) error
}

// Client is the discordgo-backed GuildClient for one guild.
type Client struct {
	session *discordgo.Session
	guildID string
}

var _ GuildClient = (*Client)(nil)

// NewClient wraps an open discordgo session for the given guild.
func NewClient(session *discordgo.Session, guildID string) *Client {
	return &Client{session: session, guildID: guildID}
}

// FetchMember loads a guild member, preferring the state cache and
// falling back to the REST API.
func (c *Client) FetchMember(ctx context.Context, memberID string) (Member, error) {
	m, err := c.session.State.Member(c.guildID, memberID)
	if err != nil {
		m, err = c.session.GuildMember(c.guildID, memberID, discordgo.WithContext(ctx))
		if err != nil {
			return Member{}, memberErr(err)
		}
	}

	name := m.Nick
	if name == "" && m.User != nil {
		name = m.User.GlobalName
		if name == "" {
			name = m.User.Username
		}
	}

	out := Member{
		ID:          memberID,
		DisplayName: name,
		AvatarURL:   m.AvatarURL(""),
		Roles:       m.Roles,
	}
	if m.User != nil {
		out.Username = m.User.Username
	}
	out.IsAdmin = c.hasAdminRole(m)
	return out, nil
}

// RenameMember sets the member's guild nickname. Callers treat this as
// best-effort: the bot may lack permission over some members.
func (c *Client) RenameMember(ctx context.Context, memberID, name string) error {
	return c.session.GuildMemberNickname(c.guildID, memberID, name, discordgo.WithContext(ctx))
}

// AddMemberRole grants a guild role to a member.
func (c *Client) AddMemberRole(ctx context.Context, memberID, roleID string) error {
	return c.session.GuildMemberRoleAdd(c.guildID, memberID, roleID, discordgo.WithContext(ctx))
}

// LookupChannel resolves a channel id. A channel is text-capable when
// messages can be posted to it directly.
func (c *Client) LookupChannel(ctx context.Context, channelID string) (Channel, error) {
	ch, err := c.session.State.Channel(channelID)
	if err != nil {
		ch, err = c.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return Channel{}, memberErr(err)
		}
	}
	if ch.GuildID != c.guildID {
		return Channel{}, ErrNotFound
	}
	return Channel{
		ID:             ch.ID,
		Name:           ch.Name,
		ParentID:       ch.ParentID,
		IsText:         ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews,
		IsPublicThread: ch.Type == discordgo.ChannelTypeGuildPublicThread,
		IsForum:        ch.Type == discordgo.ChannelTypeGuildForum,
	}, nil
}

// LookupRole resolves a guild role id to its name.
func (c *Client) LookupRole(ctx context.Context, roleID string) (string, error) {
	role, err := c.session.State.Role(c.guildID, roleID)
	if err == nil {
		return role.Name, nil
	}
	roles, err := c.session.GuildRoles(c.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("list guild roles: %w", err)
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r.Name, nil
		}
	}
	return "", ErrNotFound
}

// SendEmbed posts a rich embed to a channel.
func (c *Client) SendEmbed(ctx context.Context, channelID string, e Embed) error {
	_, err := c.session.ChannelMessageSendEmbed(channelID, buildEmbed(e), discordgo.WithContext(ctx))
	return err
}

func (c *Client) hasAdminRole(m *discordgo.Member) bool {
	for _, roleID := range m.Roles {
		role, err := c.session.State.Role(c.guildID, roleID)
		if err != nil {
			continue
		}
		if role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

func buildEmbed(e Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
	}
	if e.AuthorName != "" {
		out.Author = &discordgo.MessageEmbedAuthor{
			Name:    e.AuthorName,
			URL:     e.AuthorURL,
			IconURL: e.AuthorIcon,
		}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	return out
}

func memberErr(err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == 404 {
		return ErrNotFound
	}
	return err
}
