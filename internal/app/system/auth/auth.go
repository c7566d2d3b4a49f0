package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	DefaultSessionName = "synapse-session"

	isAuthKey  = "is_authenticated"
	userEmail  = "user_email"
	userName   = "user_name"
	userImage  = "user_image"
	signedInAt = "signed_in_at"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
// Email is the identity; Name and Image are display data.
type SessionUser struct {
	Email string
	Name  string
	Image string
}

// Actor converts the session user into the caller of an operation.
func (u *SessionUser) Actor() models.Actor {
	return models.Actor{Email: u.Email, Name: u.Name, Image: u.Image}
}

// UserFetcher reloads a user on each request so renamed or removed profiles
// take effect without waiting for the session to expire. A nil result means
// the user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, email string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects u directly, bypassing sessions. For handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the cookie store and the bearer-token settings.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher

	jwtSecret string
	jwtTTL    time.Duration
}

// NewSessionManager builds the cookie store. The `secure` flag controls
// whether cookies are marked Secure and which SameSite mode is used.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// WithTokens enables bearer tokens signed with secret.
func (sm *SessionManager) WithTokens(secret string, ttl time.Duration) *SessionManager {
	sm.jwtSecret = secret
	sm.jwtTTL = ttl
	return sm
}

// WithFetcher refreshes the session user from the directory on every request.
func (sm *SessionManager) WithFetcher(f UserFetcher) *SessionManager {
	sm.fetcher = f
	return sm
}

// TokensEnabled reports whether a signing secret is configured.
func (sm *SessionManager) TokensEnabled() bool { return sm.jwtSecret != "" }

// LoadSessionUser injects the user into context if they are signed in, from
// the session cookie or an Authorization: Bearer token.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := sm.fromBearer(r)
		if u == nil {
			u = sm.fromSession(r)
		}
		if u != nil && sm.fetcher != nil {
			u = sm.fetcher.FetchUser(r.Context(), u.Email)
		}
		if u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

func (sm *SessionManager) fromSession(r *http.Request) *SessionUser {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		var scErr securecookie.Error
		if errors.As(err, &scErr) && scErr.IsDecode() {
			sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
		}
		return nil
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return nil
	}
	email := getString(sess, userEmail)
	if email == "" {
		return nil
	}
	return &SessionUser{
		Email: email,
		Name:  getString(sess, userName),
		Image: getString(sess, userImage),
	}
}

func (sm *SessionManager) fromBearer(r *http.Request) *SessionUser {
	if sm.jwtSecret == "" {
		return nil
	}
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil
	}
	claims, err := ParseToken(strings.TrimPrefix(h, "Bearer "), sm.jwtSecret)
	if err != nil {
		sm.log.Debug("rejecting bearer token", zap.Error(err))
		return nil
	}
	return &SessionUser{Email: claims.Email, Name: claims.Name, Image: claims.Image}
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 with a JSON error body.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}

		if wantsHTML(r) {
			ret := url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"unauthenticated"}` + "\n"))
	})
}

// SignIn records u in a fresh session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userEmail] = u.Email
	sess.Values[userName] = u.Name
	sess.Values[userImage] = u.Image
	sess.Values[signedInAt] = time.Now().UTC().Unix()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// IssueToken signs a bearer token for u.
func (sm *SessionManager) IssueToken(u SessionUser) (string, time.Time, error) {
	if sm.jwtSecret == "" {
		return "", time.Time{}, errors.New("bearer tokens are not configured")
	}
	return GenerateToken(u, sm.jwtSecret, sm.jwtTTL)
}

// helpers

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}
