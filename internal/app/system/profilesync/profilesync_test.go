package profilesync

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/domain/models"
	"github.com/ideaslab/server/internal/testutil"
)

func seedUser(t *testing.T, users *testutil.FakeUserStore, discordID, avatar string) {
	t.Helper()
	_, err := users.Create(context.Background(), models.User{
		DiscordID: discordID,
		Handle:    "member-" + discordID,
		Name:      "Member " + discordID,
		Avatar:    avatar,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestSyncAvatarUpdatesWhenDiffering(t *testing.T) {
	users := testutil.NewFakeUserStore()
	seedUser(t, users, "100", "https://cdn.example/old.png")

	s := New(users, testutil.NewFakeGuild(), zap.NewNop())
	res := s.SyncAvatar(context.Background(), discord.Member{ID: "100", AvatarURL: "https://cdn.example/new.png"})
	if !res.OK() {
		t.Fatalf("SyncAvatar: %v", res.Err)
	}

	u, err := users.GetByDiscordID(context.Background(), "100")
	if err != nil {
		t.Fatal(err)
	}
	if u.Avatar != "https://cdn.example/new.png" {
		t.Errorf("avatar = %q, want updated", u.Avatar)
	}
}

func TestSyncAvatarNoOpForUnregistered(t *testing.T) {
	users := testutil.NewFakeUserStore()
	s := New(users, testutil.NewFakeGuild(), zap.NewNop())

	res := s.SyncAvatar(context.Background(), discord.Member{ID: "999", AvatarURL: "x"})
	if !res.OK() {
		t.Fatalf("unregistered member should be a no-op, got %v", res.Err)
	}
	if users.Count() != 0 {
		t.Errorf("no user should have been created")
	}
}

func TestSyncAvatarSkipsWhenUnchanged(t *testing.T) {
	users := testutil.NewFakeUserStore()
	seedUser(t, users, "100", "https://cdn.example/same.png")

	s := New(users, testutil.NewFakeGuild(), zap.NewNop())
	res := s.SyncAvatar(context.Background(), discord.Member{ID: "100", AvatarURL: "https://cdn.example/same.png"})
	if !res.OK() {
		t.Fatalf("SyncAvatar: %v", res.Err)
	}
}

func TestSyncNicknameRenamesWhenDiffering(t *testing.T) {
	guild := testutil.NewFakeGuild()
	s := New(testutil.NewFakeUserStore(), guild, zap.NewNop())

	m := discord.Member{ID: "100", DisplayName: "old-name"}
	res := s.SyncNickname(context.Background(), m, "new-name")
	if !res.OK() {
		t.Fatalf("SyncNickname: %v", res.Err)
	}
	if got := guild.Renames["100"]; got != "new-name" {
		t.Errorf("rename = %q, want %q", got, "new-name")
	}
}

func TestSyncNicknameSkipsWhenMatching(t *testing.T) {
	guild := testutil.NewFakeGuild()
	s := New(testutil.NewFakeUserStore(), guild, zap.NewNop())

	m := discord.Member{ID: "100", DisplayName: "same"}
	if res := s.SyncNickname(context.Background(), m, "same"); !res.OK() {
		t.Fatalf("SyncNickname: %v", res.Err)
	}
	if len(guild.Renames) != 0 {
		t.Errorf("no rename expected, got %v", guild.Renames)
	}
}

func TestSyncNicknameCapturesFailure(t *testing.T) {
	guild := testutil.NewFakeGuild()
	guild.RenameErr = errors.New("missing permission")
	s := New(testutil.NewFakeUserStore(), guild, zap.NewNop())

	res := s.SyncNickname(context.Background(), discord.Member{ID: "100", DisplayName: "a"}, "b")
	if res.OK() {
		t.Fatal("expected captured failure")
	}
	if res.Op != "sync nickname" {
		t.Errorf("op = %q", res.Op)
	}
}
