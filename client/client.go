package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when a request cannot be retried because no
// valid refresh token remains; the session has been cleared and the caller
// should navigate to the login page.
var ErrSessionExpired = errors.New("session expired")

// APIError carries a non-2xx portal response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Client wraps portal API calls. On a 401 it refreshes the token pair once
// and replays the request; concurrent requests share a single refresh.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *SessionStore

	refreshMu sync.Mutex

	// onSessionExpired receives the route to navigate to (the login page)
	// after the stored session is cleared. Optional.
	onSessionExpired func(route string)
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

func WithSessionExpiredHandler(handler func(route string)) Option {
	return func(c *Client) { c.onSessionExpired = handler }
}

func New(baseURL string, sessions *SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an authenticated request, decoding the JSON response into out
// when out is non-nil. A 401 triggers exactly one refresh-and-replay.
func (c *Client) Do(ctx context.Context, method, path string, payload, out interface{}) error {
	tokenUsed := ""
	if sess, ok := c.sessions.Session(); ok {
		tokenUsed = sess.AccessToken
	}

	status, body, err := c.send(ctx, method, path, payload, tokenUsed)
	if err != nil {
		return err
	}
	// A 401 only means "stale access token" when a token was attached;
	// credential endpoints return their 401s straight through.
	if status != http.StatusUnauthorized || tokenUsed == "" {
		return decodeResponse(status, body, out)
	}

	token, err := c.refreshSession(ctx, tokenUsed)
	if err != nil {
		return err
	}

	status, body, err = c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}
	return decodeResponse(status, body, out)
}

// refreshSession rotates the token pair, coalescing concurrent callers: the
// first caller performs the refresh, the rest reuse its result.
func (c *Client) refreshSession(ctx context.Context, staleToken string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	sess, ok := c.sessions.Session()
	if ok && sess.AccessToken != staleToken {
		return sess.AccessToken, nil
	}
	if !ok || sess.RefreshToken == "" {
		c.expireSession()
		return "", ErrSessionExpired
	}

	status, body, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{
		"refreshToken": sess.RefreshToken,
	}, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		c.expireSession()
		return "", ErrSessionExpired
	}

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		c.expireSession()
		return "", ErrSessionExpired
	}
	if err := c.sessions.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		c.expireSession()
		return "", ErrSessionExpired
	}
	return resp.AccessToken, nil
}

func (c *Client) expireSession() {
	c.sessions.Logout()
	if c.onSessionExpired != nil {
		c.onSessionExpired(LoginRoute)
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload interface{}, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func decodeResponse(status int, body []byte, out interface{}) error {
	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status}
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

// Login authenticates and stores the validated session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, string, error) {
	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         User   `json:"user"`
		RedirectURL  string `json:"redirectUrl"`
	}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp); err != nil {
		return Session{}, "", err
	}
	if err := c.sessions.Login(resp.AccessToken, resp.RefreshToken, resp.User); err != nil {
		return Session{}, "", err
	}
	sess, _ := c.sessions.Session()
	return sess, resp.RedirectURL, nil
}

// Logout revokes the session server-side, then clears local state. The local
// clear happens regardless of the server call outcome.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", map[string]string{}, nil)
	c.sessions.Logout()
	if errors.Is(err, ErrSessionExpired) {
		return nil
	}
	return err
}

// SubmitExperience posts a completed wizard payload.
func (c *Client) SubmitExperience(ctx context.Context, payload interface{}) error {
	return c.Do(ctx, http.MethodPost, "/api/experiences/", payload, nil)
}
