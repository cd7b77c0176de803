package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"sync"
)

// DefaultCSRFCookie is the cookie the backend stores the CSRF token in.
const DefaultCSRFCookie = "csrftoken"

// User is the account record returned by login and user creation.
type User struct {
	ID       int64  `json:"id,omitempty"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive bool   `json:"is_active,omitempty"`
	IsStaff  bool   `json:"is_staff,omitempty"`
}

type loginResponse struct {
	User User `json:"user"`
}

// Login authenticates against the backend. The backend answers with session
// and CSRF cookies, which the client's jar keeps for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var out loginResponse
	if err := c.doJSON(ctx, call{method: http.MethodPost, route: routeLogin, path: routeLogin, body: body}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout clears the backend session cookies.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, call{method: http.MethodPost, route: routeLogout, path: routeLogout}, nil)
}

// CreateUser registers a new account. Requires an admin session.
func (c *Client) CreateUser(ctx context.Context, u User, csrf string) (*User, error) {
	var out User
	if err := c.doJSON(ctx, call{method: http.MethodPost, route: routeUsers, path: routeUsers, body: u, csrf: csrf}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CredentialProvider supplies the CSRF token for mutating calls.
type CredentialProvider interface {
	CSRFToken() (string, bool)
}

// CookieCredentials reads the CSRF token from a cookie jar, the way a browser
// page reads document.cookie.
type CookieCredentials struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// CSRFToken returns the current token, or false when the cookie is absent.
func (c CookieCredentials) CSRFToken() (string, bool) {
	if c.Jar == nil || c.URL == nil {
		return "", false
	}
	name := c.Name
	if name == "" {
		name = DefaultCSRFCookie
	}
	for _, ck := range c.Jar.Cookies(c.URL) {
		if ck.Name == name && ck.Value != "" {
			if v, err := url.QueryUnescape(ck.Value); err == nil {
				return v, true
			}
			return ck.Value, true
		}
	}
	return "", false
}

// StaticCredentials holds a fixed token; the empty token counts as absent.
type StaticCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewStaticCredentials returns credentials holding token.
func NewStaticCredentials(token string) *StaticCredentials {
	return &StaticCredentials{token: token}
}

// CSRFToken implements CredentialProvider.
func (s *StaticCredentials) CSRFToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set replaces the token.
func (s *StaticCredentials) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
