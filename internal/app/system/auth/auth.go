// internal/app/system/auth/auth.go

// Package auth owns the cookie session: issuing it on login, destroying
// it on logout, and the middleware that loads the session principal and
// gates authenticated (401) and admin-only (403) procedures.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/ideaslab/server/internal/app/features/errors"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session value keys.
const (
	isAuthKey  = "is_authenticated"
	userIDKey  = "user_id"
	isAdminKey = "is_admin"
)

// SessionUser is the principal cached in the session and injected into
// r.Context(). ID is the Discord guild-member id.
type SessionUser struct {
	ID      string
	IsAdmin bool
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the session principal and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// SessionManager wraps the gorilla cookie store. All session reads and
// writes in the app go through it.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager.
//
// An empty key is allowed only as a dev convenience: a random key is
// generated, which invalidates all sessions on restart. In production
// (secure=true), cookies are Secure with SameSite=None so the SPA can
// send them cross-site; dev uses Lax over plain http.
func NewSessionManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if name == "" {
		return nil, fmt.Errorf("session cookie name is empty")
	}
	key := []byte(sessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not configured; generated an ephemeral key (sessions reset on restart)")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	} else {
		store.Options.SameSite = http.SameSiteLaxMode
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// GetSession returns the request's session, creating a fresh one if the
// cookie is absent or fails to decode.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// Login binds the session to a principal and persists it before the
// response body is written. Callers must not report success to the
// client if Login returns an error.
func (sm *SessionManager) Login(w http.ResponseWriter, r *http.Request, principalID string, isAdmin bool) error {
	sess, err := sm.GetSession(r)
	if err != nil && sess == nil {
		return fmt.Errorf("get session: %w", err)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = principalID
	sess.Values[isAdminKey] = isAdmin
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Logout destroys the session server-side and tells the client to drop
// the cookie. The caller is not logged out until this returns nil.
func (sm *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil && sess == nil {
		return fmt.Errorf("get session: %w", err)
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	// The deletion cookie must match the store options or browsers keep
	// the original.
	if opts := sm.store.Options; opts != nil {
		o := *opts
		sess.Options = &o
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

// LoadSessionUser injects the principal into context when the request
// carries an authenticated session.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.GetSession(r)
		if err != nil || sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{}
			u.ID, _ = sess.Values[userIDKey].(string)
			u.IsAdmin, _ = sess.Values[isAdminKey].(bool)
			if u.ID != "" {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a session principal with a
// 401 before any handler side effect runs.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			apierrors.Unauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and non-admin
// sessions with 403.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			apierrors.Unauthenticated(w)
			return
		}
		if !u.IsAdmin {
			apierrors.Forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrNoSession is returned by SessionPrincipal when the request has no
// authenticated session.
var ErrNoSession = errors.New("no authenticated session")

// SessionPrincipal is the non-middleware variant of CurrentUser for
// handlers that want an explicit error value.
func SessionPrincipal(r *http.Request) (*SessionUser, error) {
	if u, ok := CurrentUser(r); ok {
		return u, nil
	}
	return nil, ErrNoSession
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a principal into the request context, bypassing
// the session middleware. Test helper only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}
