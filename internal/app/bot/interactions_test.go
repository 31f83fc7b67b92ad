package bot_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ideaslab/server/internal/app/bot"
	"github.com/ideaslab/server/internal/app/store/pins"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/token"
	"github.com/ideaslab/server/internal/domain/models"
	"github.com/ideaslab/server/internal/testutil"
)

type fakePinIssuer struct {
	lastPrincipal token.Principal
}

func (f *fakePinIssuer) Issue(ctx context.Context, p token.Principal) (*pins.IssueResult, error) {
	f.lastPrincipal = p
	return &pins.IssueResult{Code: "123456", ExpiresAt: time.Now().Add(10 * time.Minute)}, nil
}

type interactionsEnv struct {
	actions  *bot.Interactions
	users    *testutil.FakeUserStore
	guild    *testutil.FakeGuild
	pins     *fakePinIssuer
	verifier *token.Issuer
}

func newInteractionsEnv(t *testing.T) *interactionsEnv {
	t.Helper()

	users := testutil.NewFakeUserStore()
	guild := testutil.NewFakeGuild()
	guild.Roles["777"] = "member"
	settings := testutil.NewFakeSettings(map[string]string{models.SettingUserRole: "777"})

	issuer, err := token.New("test-token-secret", 0)
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	pinIssuer := &fakePinIssuer{}

	actions := bot.NewInteractions(users, settings, issuer, pinIssuer, guild, "https://ideaslab.example", zap.NewNop())
	return &interactionsEnv{actions: actions, users: users, guild: guild, pins: pinIssuer, verifier: issuer}
}

func TestRegisterComplete_NewMemberGetsSignupLink(t *testing.T) {
	env := newInteractionsEnv(t)

	member := discord.Member{ID: "100", DisplayName: "Alice", AvatarURL: "https://cdn.example/a.png"}
	data, err := env.actions.RegisterComplete(context.Background(), member)
	if err != nil {
		t.Fatalf("RegisterComplete: %v", err)
	}

	if len(data.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(data.Embeds))
	}
	desc := data.Embeds[0].Description
	if !strings.HasPrefix(desc, "https://ideaslab.example/signup?token=") {
		t.Fatalf("signup link = %q", desc)
	}

	signed := strings.TrimPrefix(desc, "https://ideaslab.example/signup?token=")
	p, err := env.verifier.Verify(signed)
	if err != nil {
		t.Fatalf("embedded token does not verify: %v", err)
	}
	if p.DiscordID != "100" || p.Name != "Alice" {
		t.Errorf("token principal = %+v", p)
	}

	if !strings.Contains(data.Embeds[0].Footer.Text, "10 minutes") {
		t.Errorf("footer = %q, want the expiry window", data.Embeds[0].Footer.Text)
	}
}

func TestRegisterComplete_ExistingMemberGreetedAndRoleGranted(t *testing.T) {
	env := newInteractionsEnv(t)
	_, err := env.users.Create(context.Background(), models.User{DiscordID: "100", Handle: "alice", Name: "Alice"})
	if err != nil {
		t.Fatal(err)
	}

	data, err := env.actions.RegisterComplete(context.Background(), discord.Member{ID: "100", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("RegisterComplete: %v", err)
	}

	if !strings.Contains(data.Content, "already registered") {
		t.Errorf("content = %q", data.Content)
	}
	if len(data.Embeds) != 0 {
		t.Error("no signup link expected for a registered member")
	}
	if got := env.guild.RoleGrants["100"]; len(got) != 1 || got[0] != "777" {
		t.Errorf("role grants = %v, want [777]", got)
	}
}

func TestLoginPin_IssuesCodeForPresser(t *testing.T) {
	env := newInteractionsEnv(t)

	member := discord.Member{ID: "100", DisplayName: "Alice", IsAdmin: true}
	data, err := env.actions.LoginPin(context.Background(), member)
	if err != nil {
		t.Fatalf("LoginPin: %v", err)
	}

	if !strings.Contains(data.Content, "123456") {
		t.Errorf("content = %q, want the pin code", data.Content)
	}
	if env.pins.lastPrincipal.DiscordID != "100" || !env.pins.lastPrincipal.IsAdmin {
		t.Errorf("principal passed to pin issuer = %+v", env.pins.lastPrincipal)
	}
}
