package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	authfeature "github.com/ideaslab/server/internal/app/features/auth"
	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	"github.com/ideaslab/server/internal/app/store/pins"
	sessionauth "github.com/ideaslab/server/internal/app/system/auth"
	"github.com/ideaslab/server/internal/app/system/ratelimit"
	"github.com/ideaslab/server/internal/app/system/token"
	"github.com/ideaslab/server/internal/testutil"
)

// fakePins is a single-use in-memory PIN table.
type fakePins struct {
	mu    sync.Mutex
	codes map[string]token.Principal
}

func newFakePins() *fakePins {
	return &fakePins{codes: make(map[string]token.Principal)}
}

func (f *fakePins) add(code string, p token.Principal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code] = p
}

func (f *fakePins) Consume(ctx context.Context, code string) (token.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.codes[code]
	if !ok {
		return token.Principal{}, pins.ErrNotFound
	}
	delete(f.codes, code)
	return p, nil
}

func newTestHandler(t *testing.T) (*authfeature.Handler, *fakePins, *token.Issuer) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := sessionauth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	issuer, err := token.New("test-token-secret", 0)
	if err != nil {
		t.Fatalf("token.New failed: %v", err)
	}

	pinStore := newFakePins()
	h := authfeature.NewHandler(pinStore, issuer, sessionMgr, apierrors.NewErrorLogger(logger), logger)
	return h, pinStore, issuer
}

func sessionCookieSet(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			return true
		}
	}
	return false
}

func TestHandleLoginPin_Success(t *testing.T) {
	h, pinStore, _ := newTestHandler(t)
	pinStore.add("123456", token.Principal{DiscordID: "100", Name: "Alice"})

	req := testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "123456"})
	rec := httptest.NewRecorder()
	h.HandleLoginPin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !sessionCookieSet(rec) {
		t.Error("expected session cookie to be set")
	}

	var resp struct {
		Success bool `json:"success"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !resp.Success {
		t.Error("expected success=true")
	}
}

func TestHandleLoginPin_SingleUse(t *testing.T) {
	h, pinStore, _ := newTestHandler(t)
	pinStore.add("123456", token.Principal{DiscordID: "100"})

	first := httptest.NewRecorder()
	h.HandleLoginPin(first, testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "123456"}))
	if first.Code != http.StatusOK {
		t.Fatalf("first attempt: status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.HandleLoginPin(second, testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "123456"}))
	if second.Code != http.StatusBadRequest {
		t.Errorf("second attempt: status = %d, want %d", second.Code, http.StatusBadRequest)
	}
	if sessionCookieSet(second) {
		t.Error("no session cookie expected on a consumed pin")
	}
}

func TestHandleLoginPin_Invalid(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown code", `{"pin":"999999"}`},
		{"wrong length", `{"pin":"12345"}`},
		{"empty", `{"pin":""}`},
		{"garbage body", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login/pin", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.HandleLoginPin(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if sessionCookieSet(rec) {
				t.Error("no session cookie expected")
			}
		})
	}
}

func TestHandleLoginPin_RateLimited(t *testing.T) {
	h, pinStore, _ := newTestHandler(t)
	h.Guard = ratelimit.New(2, time.Minute)
	pinStore.add("123456", token.Principal{DiscordID: "100"})

	for range 2 {
		rec := httptest.NewRecorder()
		req := testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "999999"})
		req.RemoteAddr = "203.0.113.9:40000"
		h.HandleLoginPin(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("bad pin: status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	}

	rec := httptest.NewRecorder()
	req := testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "123456"})
	req.RemoteAddr = "203.0.113.9:40000"
	h.HandleLoginPin(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different client is not affected by the noisy one.
	rec = httptest.NewRecorder()
	req = testutil.JSONRequest(t, "POST", "/api/auth/login/pin", map[string]string{"pin": "123456"})
	req.RemoteAddr = "198.51.100.7:40000"
	h.HandleLoginPin(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestHandleLoginToken_Success(t *testing.T) {
	h, _, issuer := newTestHandler(t)

	signed, _, err := issuer.Issue(token.Principal{DiscordID: "200", Name: "Bob", IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	req := testutil.JSONRequest(t, "POST", "/api/auth/login/token", map[string]string{"token": signed})
	rec := httptest.NewRecorder()
	h.HandleLoginToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	if !sessionCookieSet(rec) {
		t.Error("expected session cookie to be set")
	}
}

func TestHandleLoginToken_Invalid(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := testutil.JSONRequest(t, "POST", "/api/auth/login/token", map[string]string{"token": "not-a-token"})
	rec := httptest.NewRecorder()
	h.HandleLoginToken(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if sessionCookieSet(rec) {
		t.Error("no session cookie expected")
	}
}

func TestHandleLogout_ExpiresCookie(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := testutil.JSONRequest(t, "POST", "/api/auth/logout", nil)
	req = testutil.WithUser(req, "100", false)
	rec := httptest.NewRecorder()
	h.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}

	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected an expiring session cookie")
	}
}
