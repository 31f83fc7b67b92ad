package testutil

import (
	"context"
	"sync"

	commentstore "github.com/ideaslab/server/internal/app/store/comments"
	poststore "github.com/ideaslab/server/internal/app/store/posts"
	settingsstore "github.com/ideaslab/server/internal/app/store/settings"
	userstore "github.com/ideaslab/server/internal/app/store/users"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FakeUserStore is an in-memory users store that enforces the same
// uniqueness invariants as the real collection's indexes (discord_id,
// handle), including under concurrent Create calls.
type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User // by discord id
}

// NewFakeUserStore creates an empty fake users store.
func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[string]*models.User)}
}

func (f *FakeUserStore) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[discordID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, userstore.ErrNotFound
}

func (f *FakeUserStore) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Handle == handle {
			cp := *u
			return &cp, nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (f *FakeUserStore) HandleExists(ctx context.Context, handle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeUserStore) Create(ctx context.Context, u models.User) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.DiscordID]; ok {
		return models.User{}, userstore.ErrDuplicateDiscordID
	}
	for _, existing := range f.users {
		if existing.Handle == u.Handle {
			return models.User{}, userstore.ErrDuplicateHandle
		}
	}
	u.ID = primitive.NewObjectID()
	cp := u
	f.users[u.DiscordID] = &cp
	return u, nil
}

func (f *FakeUserStore) UpdateProfile(ctx context.Context, discordID string, upd userstore.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[discordID]
	if !ok {
		return userstore.ErrNotFound
	}
	for id, other := range f.users {
		if id != discordID && other.Handle == upd.Handle {
			return userstore.ErrDuplicateHandle
		}
	}
	u.Name = upd.Name
	u.Handle = upd.Handle
	u.Introduce = upd.Introduce
	u.Avatar = upd.Avatar
	u.Roles = upd.Roles
	u.Links = upd.Links
	return nil
}

func (f *FakeUserStore) UpdateAvatar(ctx context.Context, discordID, avatar string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[discordID]; ok {
		u.Avatar = avatar
	}
	return nil
}

// Count returns the number of stored users.
func (f *FakeUserStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// FakeSettings is an in-memory settings store.
type FakeSettings struct {
	mu     sync.Mutex
	values map[string]models.Setting
}

// NewFakeSettings creates a fake settings store seeded with values.
func NewFakeSettings(values map[string]string) *FakeSettings {
	f := &FakeSettings{values: make(map[string]models.Setting)}
	for k, v := range values {
		f.values[k] = models.Setting{Key: k, Value: v, Type: models.SettingTypeString}
	}
	return f
}

func (f *FakeSettings) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.values[key]; ok {
		return s.Value, nil
	}
	return "", settingsstore.ErrNotFound
}

func (f *FakeSettings) GetOrDefault(ctx context.Context, key, def string) (string, error) {
	v, err := f.Get(ctx, key)
	if err == settingsstore.ErrNotFound {
		return def, nil
	}
	return v, err
}

func (f *FakeSettings) List(ctx context.Context) ([]models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Setting, 0, len(f.values))
	for _, s := range f.values {
		out = append(out, s)
	}
	return out, nil
}

func (f *FakeSettings) Set(ctx context.Context, key, value, typ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = models.Setting{Key: key, Value: value, Type: typ}
	return nil
}

// FakeGuild is an in-memory discord.GuildClient recording mutations.
type FakeGuild struct {
	mu       sync.Mutex
	Members  map[string]discord.Member
	Channels map[string]discord.Channel
	Roles    map[string]string // role id -> name

	Renames    map[string]string // member id -> last requested name
	RoleGrants map[string][]string
	Sent       []SentEmbed

	RenameErr error
	SendErr   error
}

// SentEmbed records one SendEmbed call.
type SentEmbed struct {
	ChannelID string
	Embed     discord.Embed
}

// NewFakeGuild creates an empty fake guild.
func NewFakeGuild() *FakeGuild {
	return &FakeGuild{
		Members:    make(map[string]discord.Member),
		Channels:   make(map[string]discord.Channel),
		Roles:      make(map[string]string),
		Renames:    make(map[string]string),
		RoleGrants: make(map[string][]string),
	}
}

func (f *FakeGuild) FetchMember(ctx context.Context, memberID string) (discord.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[memberID]; ok {
		return m, nil
	}
	return discord.Member{}, discord.ErrNotFound
}

func (f *FakeGuild) RenameMember(ctx context.Context, memberID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RenameErr != nil {
		return f.RenameErr
	}
	f.Renames[memberID] = name
	if m, ok := f.Members[memberID]; ok {
		m.DisplayName = name
		f.Members[memberID] = m
	}
	return nil
}

func (f *FakeGuild) AddMemberRole(ctx context.Context, memberID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RoleGrants[memberID] = append(f.RoleGrants[memberID], roleID)
	return nil
}

func (f *FakeGuild) LookupChannel(ctx context.Context, channelID string) (discord.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.Channels[channelID]; ok {
		return ch, nil
	}
	return discord.Channel{}, discord.ErrNotFound
}

func (f *FakeGuild) LookupRole(ctx context.Context, roleID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name, ok := f.Roles[roleID]; ok {
		return name, nil
	}
	return "", discord.ErrNotFound
}

func (f *FakeGuild) SendEmbed(ctx context.Context, channelID string, e discord.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, SentEmbed{ChannelID: channelID, Embed: e})
	return nil
}

// SentCount returns how many embeds were sent.
func (f *FakeGuild) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// FakePostStore is an in-memory posts store keyed by thread id.
type FakePostStore struct {
	mu    sync.Mutex
	posts map[string]models.Post
}

// NewFakePostStore creates a fake posts store.
func NewFakePostStore() *FakePostStore {
	return &FakePostStore{posts: make(map[string]models.Post)}
}

// Add seeds a tracked thread and returns it.
func (f *FakePostStore) Add(threadID, authorID, title string) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Post{ID: primitive.NewObjectID(), DiscordID: threadID, AuthorID: authorID, Title: title}
	f.posts[threadID] = p
	return p
}

func (f *FakePostStore) GetByThreadID(ctx context.Context, threadID string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[threadID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, poststore.ErrNotFound
}

// FakeCommentStore is an in-memory comments store with the unique
// message-id invariant.
type FakeCommentStore struct {
	mu       sync.Mutex
	Comments []models.Comment
}

// NewFakeCommentStore creates a fake comments store.
func NewFakeCommentStore() *FakeCommentStore {
	return &FakeCommentStore{}
}

func (f *FakeCommentStore) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.Comments {
		if existing.DiscordID == c.DiscordID {
			return models.Comment{}, commentstore.ErrDuplicateMessage
		}
	}
	c.ID = primitive.NewObjectID()
	c.HasParent = c.ParentID != ""
	f.Comments = append(f.Comments, c)
	return c, nil
}

// FakeStats is an in-memory message counter.
type FakeStats struct {
	mu     sync.Mutex
	Counts map[string]int64
}

// NewFakeStats creates a fake message counter.
func NewFakeStats() *FakeStats {
	return &FakeStats{Counts: make(map[string]int64)}
}

func (f *FakeStats) Increment(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Counts[userID]++
	return nil
}

func (f *FakeStats) Get(ctx context.Context, userID string) (models.MessageStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.MessageStat{UserID: userID, Count: f.Counts[userID]}, nil
}
