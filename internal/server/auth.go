package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"drivesearch/internal/domain"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var oauthScopes = []string{
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/drive.readonly",
}

// userInfo is the user's basic profile from Google.
type userInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthHandler runs the Google OAuth login flow and manages sessions.
// The auth cookie carries an HS256 JWT whose subject is the session id.
type AuthHandler struct {
	oauth    *oauth2.Config
	sessions *SessionStore
	secret   []byte
	ttl      time.Duration

	mu     sync.Mutex
	states map[string]time.Time
}

// AuthConfig configures the OAuth flow.
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Secret       []byte
	SessionTTL   time.Duration
}

func NewAuthHandler(cfg AuthConfig, sessions *SessionStore) *AuthHandler {
	return &AuthHandler{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       oauthScopes,
			Endpoint:     google.Endpoint,
		},
		sessions: sessions,
		secret:   cfg.Secret,
		ttl:      cfg.SessionTTL,
		states:   make(map[string]time.Time),
	}
}

// Register wires the login flow routes.
func (a *AuthHandler) Register(e *echo.Echo) {
	e.GET("/", a.landing)
	e.GET("/auth/google", a.login)
	e.GET("/auth/google/callback", a.callback)
	e.GET("/profile", a.profile, a.Middleware())
	e.GET("/logout", a.logout)
}

func (a *AuthHandler) landing(c echo.Context) error {
	return c.HTML(http.StatusOK, `<a href='/auth/google'>Login with Google</a>`)
}

func (a *AuthHandler) login(c echo.Context) error {
	state, err := a.newState()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, a.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (a *AuthHandler) callback(c echo.Context) error {
	if !a.consumeState(c.QueryParam("state")) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid state parameter")
	}
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no authorization code received")
	}
	ctx := c.Request().Context()
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "code exchange failed")
	}
	info, err := fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "user info fetch failed")
	}

	sess := a.sessions.Create(info.Email, info.Name, credentialFromToken(token))
	signed, err := signJWT(sess.ID, a.secret, a.ttl)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.SetCookie(authCookie(signed, a.ttl))
	return c.Redirect(http.StatusFound, "/profile")
}

func (a *AuthHandler) profile(c echo.Context) error {
	sess := sessionFromContext(c)
	return c.HTML(http.StatusOK, fmt.Sprintf("Welcome %s", sess.Name))
}

func (a *AuthHandler) logout(c echo.Context) error {
	if id, err := a.sessionID(extractToken(c)); err == nil {
		a.sessions.Delete(id)
	}
	cookie := authCookie("", 0)
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.Redirect(http.StatusFound, "/")
}

// Middleware resolves the auth cookie or bearer token to a session and
// stores it in the request context.
func (a *AuthHandler) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := extractToken(c)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			id, err := a.sessionID(tok)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			sess, err := a.sessions.Get(id)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

const sessionContextKey = "session"

func sessionFromContext(c echo.Context) *Session {
	if sess, ok := c.Get(sessionContextKey).(*Session); ok {
		return sess
	}
	return nil
}

func (a *AuthHandler) sessionID(tok string) (string, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}
	return parsed.Claims.GetSubject()
}

func (a *AuthHandler) newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)
	a.mu.Lock()
	a.states[state] = time.Now().Add(10 * time.Minute)
	a.mu.Unlock()
	return state, nil
}

func (a *AuthHandler) consumeState(state string) bool {
	if state == "" {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	deadline, ok := a.states[state]
	if !ok {
		return false
	}
	delete(a.states, state)
	return time.Now().Before(deadline)
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}

// signJWT issues a signed token with the provided subject and TTL.
func signJWT(subject string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func authCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = value
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	if ttl > 0 {
		cookie.Expires = time.Now().Add(ttl)
	}
	return cookie
}

// fetchUserInfo returns the user's profile using an access token.
func fetchUserInfo(ctx context.Context, accessToken string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d", resp.StatusCode)
	}
	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

func credentialFromToken(token *oauth2.Token) domain.Credential {
	return domain.Credential(token.AccessToken)
}
