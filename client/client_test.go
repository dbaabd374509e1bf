package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/divyesh007-delta/Placify-1/client"
)

type fakePortal struct {
	mu            sync.Mutex
	validToken    string
	refreshCalls  int64
	protectedHits int64
}

func (f *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.refreshCalls, 1)
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken == "" || req.RefreshToken == "revoked" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid refresh token"})
			return
		}

		f.mu.Lock()
		f.validToken = "access-2"
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"accessToken":  "access-2",
			"refreshToken": "refresh-2",
		})
	})
	mux.HandleFunc("/api/protected", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f.protectedHits, 1)
		f.mu.Lock()
		valid := "Bearer " + f.validToken
		f.mu.Unlock()
		if r.Header.Get("Authorization") != valid {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid or expired token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "value": "ok"})
	})
	return mux
}

func loggedInStore(t *testing.T, accessToken, refreshToken string) *client.SessionStore {
	t.Helper()
	sessions := client.NewSessionStore(client.NewMemoryStorage())
	require.NoError(t, sessions.Login(accessToken, refreshToken, validUser()))
	return sessions
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	portal := &fakePortal{validToken: "access-2"}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	sessions := loggedInStore(t, "access-1", "refresh-1")
	api := client.New(server.URL, sessions)

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out struct {
				Value string `json:"value"`
			}
			errs[i] = api.Do(context.Background(), http.MethodGet, "/api/protected", nil, &out)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&portal.refreshCalls), "expected a single shared refresh")

	sess, ok := sessions.Session()
	require.True(t, ok)
	require.Equal(t, "access-2", sess.AccessToken)
	require.Equal(t, "refresh-2", sess.RefreshToken)
}

func TestStale401ReplaysExactlyOnce(t *testing.T) {
	hits := int64(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":      true,
				"accessToken":  "access-2",
				"refreshToken": "refresh-2",
			})
			return
		}
		// The resource rejects every token; the client must not loop.
		atomic.AddInt64(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid or expired token"})
	}))
	defer server.Close()

	sessions := loggedInStore(t, "access-1", "refresh-1")
	api := client.New(server.URL, sessions)

	err := api.Do(context.Background(), http.MethodGet, "/api/protected", nil, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, int64(2), atomic.LoadInt64(&hits), "expected original call plus one replay")
}

func TestFailedRefreshClearsSessionAndRedirects(t *testing.T) {
	portal := &fakePortal{validToken: "access-2"}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	sessions := loggedInStore(t, "access-1", "revoked")
	redirectedTo := ""
	api := client.New(server.URL, sessions, client.WithSessionExpiredHandler(func(route string) {
		redirectedTo = route
	}))

	err := api.Do(context.Background(), http.MethodGet, "/api/protected", nil, nil)
	require.ErrorIs(t, err, client.ErrSessionExpired)
	require.False(t, sessions.IsAuthenticated())
	require.Equal(t, client.LoginRoute, redirectedTo)
}

func TestUnauthenticatedRequestDoesNotRefresh(t *testing.T) {
	portal := &fakePortal{validToken: "access-2"}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	sessions := client.NewSessionStore(client.NewMemoryStorage())
	api := client.New(server.URL, sessions)

	err := api.Do(context.Background(), http.MethodGet, "/api/protected", nil, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, int64(0), atomic.LoadInt64(&portal.refreshCalls))
}

func TestLoginStoresSessionFromResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
			"user": map[string]interface{}{
				"id":              "u1",
				"email":           "asha@bvmengineering.ac.in",
				"role":            "student",
				"isSetupComplete": false,
			},
			"redirectUrl": "/student-setup",
		})
	}))
	defer server.Close()

	sessions := client.NewSessionStore(client.NewMemoryStorage())
	api := client.New(server.URL, sessions)

	sess, redirectURL, err := api.Login(context.Background(), "asha@bvmengineering.ac.in", "secret1")
	require.NoError(t, err)
	require.Equal(t, "/student-setup", redirectURL)
	require.Equal(t, "access-1", sess.AccessToken)
	require.True(t, sessions.IsAuthenticated())
}

func TestLoginRejectsMalformedServerPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":     true,
			"accessToken": "access-1",
			// refresh token and user are missing
		})
	}))
	defer server.Close()

	sessions := client.NewSessionStore(client.NewMemoryStorage())
	api := client.New(server.URL, sessions)

	_, _, err := api.Login(context.Background(), "asha@bvmengineering.ac.in", "secret1")
	require.ErrorIs(t, err, client.ErrInvalidSession)
	require.False(t, sessions.IsAuthenticated())
}
