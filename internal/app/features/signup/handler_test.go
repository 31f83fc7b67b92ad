package signup_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	"github.com/ideaslab/server/internal/app/features/signup"
	"github.com/ideaslab/server/internal/app/system/discord"
	"github.com/ideaslab/server/internal/app/system/profilesync"
	"github.com/ideaslab/server/internal/domain/models"
	"github.com/ideaslab/server/internal/testutil"
)

type fakeCaptcha struct {
	ok     bool
	called bool
}

func (f *fakeCaptcha) Verify(ctx context.Context, responseToken string) bool {
	f.called = true
	return f.ok
}

type testEnv struct {
	handler *signup.Handler
	users   *testutil.FakeUserStore
	guild   *testutil.FakeGuild
	captcha *fakeCaptcha
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	users := testutil.NewFakeUserStore()
	guild := testutil.NewFakeGuild()
	guild.Members["100"] = discord.Member{ID: "100", Username: "alice", DisplayName: "alice", AvatarURL: "https://cdn.example/a.png"}
	guild.Channels["555"] = discord.Channel{ID: "555", Name: "welcome", IsText: true}
	guild.Roles["777"] = "builder"

	settings := testutil.NewFakeSettings(map[string]string{
		models.SettingWelcomeChannel: "555",
		models.SettingWelcomeMessage: "Say hi to {name}",
	})
	captcha := &fakeCaptcha{ok: true}

	h := signup.NewHandler(
		users,
		settings,
		captcha,
		guild,
		profilesync.New(users, guild, logger),
		apierrors.NewErrorLogger(logger),
		"https://ideaslab.example",
		logger,
	)
	return &testEnv{handler: h, users: users, guild: guild, captcha: captcha}
}

func validBody() map[string]any {
	return map[string]any{
		"name":      "Alice",
		"handle":    "alice",
		"introduce": "Hello there",
		"roles":     []string{"777"},
		"links":     []map[string]string{{"name": "blog", "url": "https://blog.example"}},
		"captcha":   "captcha-token",
	}
}

func doSignup(t *testing.T, env *testEnv, discordID string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.JSONRequest(t, "POST", "/api/auth/signup", body)
	if discordID != "" {
		req = testutil.WithUser(req, discordID, false)
	}
	rec := httptest.NewRecorder()
	env.handler.HandleSignup(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeJSON(t, rec, &body)
	return body.Error.Code, body.Error.Message
}

func TestHandleSignup_Success(t *testing.T) {
	env := newTestEnv(t)

	rec := doSignup(t, env, "100", validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}

	u, err := env.users.GetByDiscordID(context.Background(), "100")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if u.Handle != "alice" || u.Name != "Alice" {
		t.Errorf("created user = %+v", u)
	}
	if u.Avatar != "https://cdn.example/a.png" {
		t.Errorf("avatar not copied from guild member: %q", u.Avatar)
	}
	if u.RegisterFrom != "web" {
		t.Errorf("register_from = %q, want web", u.RegisterFrom)
	}

	if got := env.guild.Renames["100"]; got != "Alice" {
		t.Errorf("nickname sync = %q, want Alice", got)
	}

	if env.guild.SentCount() != 1 {
		t.Fatalf("welcome embeds sent = %d, want 1", env.guild.SentCount())
	}
	sent := env.guild.Sent[0]
	if sent.ChannelID != "555" {
		t.Errorf("welcome channel = %q", sent.ChannelID)
	}
	if sent.Embed.Title != "Say hi to Alice" {
		t.Errorf("welcome title = %q", sent.Embed.Title)
	}
	if sent.Embed.URL != "https://ideaslab.example/@alice" {
		t.Errorf("profile url = %q", sent.Embed.URL)
	}
}

func TestHandleSignup_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rec := doSignup(t, env, "", validBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if env.captcha.called {
		t.Error("captcha must not run for anonymous requests")
	}
}

func TestHandleSignup_CaptchaFailureStopsEverything(t *testing.T) {
	env := newTestEnv(t)
	env.captcha.ok = false

	rec := doSignup(t, env, "100", validBody())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, msg := errorCode(t, rec); msg != "captcha failed" {
		t.Errorf("message = %q", msg)
	}
	if env.users.Count() != 0 {
		t.Error("no user may be created after a failed captcha")
	}
	if env.guild.SentCount() != 0 || len(env.guild.Renames) != 0 {
		t.Error("no guild side effects expected after a failed captcha")
	}
}

func TestHandleSignup_AlreadyRegistered(t *testing.T) {
	env := newTestEnv(t)

	if rec := doSignup(t, env, "100", validBody()); rec.Code != http.StatusOK {
		t.Fatalf("first signup: %d; body %s", rec.Code, rec.Body.String())
	}

	body := validBody()
	body["handle"] = "alice-two"
	rec := doSignup(t, env, "100", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, msg := errorCode(t, rec); msg != "already registered" {
		t.Errorf("message = %q", msg)
	}
	if env.users.Count() != 1 {
		t.Errorf("user count = %d, want 1", env.users.Count())
	}
}

func TestHandleSignup_HandleTaken(t *testing.T) {
	env := newTestEnv(t)
	env.guild.Members["200"] = discord.Member{ID: "200", DisplayName: "bob"}

	if rec := doSignup(t, env, "100", validBody()); rec.Code != http.StatusOK {
		t.Fatalf("first signup: %d", rec.Code)
	}

	rec := doSignup(t, env, "200", validBody()) // same handle "alice"
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, msg := errorCode(t, rec); msg != "handle already taken" {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleSignup_ConcurrentSameMember(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := doSignup(t, env, "100", validBody())
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	okCount := 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			okCount++
		case http.StatusBadRequest:
		default:
			t.Fatalf("unexpected status %d", c)
		}
	}
	if okCount != 1 {
		t.Errorf("successes = %d, want exactly 1", okCount)
	}
	if env.users.Count() != 1 {
		t.Errorf("user count = %d, want 1", env.users.Count())
	}
}

func TestHandleSignup_NotAGuildMember(t *testing.T) {
	env := newTestEnv(t)

	rec := doSignup(t, env, "999", validBody())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, msg := errorCode(t, rec); msg != "not a guild member" {
		t.Errorf("message = %q", msg)
	}
}

func TestHandleSignup_UnknownRole(t *testing.T) {
	env := newTestEnv(t)

	body := validBody()
	body["roles"] = []string{"non-existent"}
	rec := doSignup(t, env, "100", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSignup_WelcomeFailureStaysInvisible(t *testing.T) {
	env := newTestEnv(t)
	env.guild.SendErr = errors.New("channel gone")

	rec := doSignup(t, env, "100", validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; welcome failures must not surface", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestHandleCheckHandle(t *testing.T) {
	env := newTestEnv(t)
	if rec := doSignup(t, env, "100", validBody()); rec.Code != http.StatusOK {
		t.Fatalf("seed signup: %d", rec.Code)
	}

	tests := []struct {
		name      string
		handle    string
		available bool
	}{
		{"free handle", "bob", true},
		{"taken handle", "alice", false},
		{"invalid slug", "Not A Slug!", false},
		{"too short", "a", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.JSONRequest(t, "POST", "/api/auth/handle/check", map[string]string{"handle": tt.handle})
			rec := httptest.NewRecorder()
			env.handler.HandleCheckHandle(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var resp struct {
				Available bool `json:"available"`
			}
			testutil.DecodeJSON(t, rec, &resp)
			if resp.Available != tt.available {
				t.Errorf("available = %v, want %v", resp.Available, tt.available)
			}
		})
	}
}
