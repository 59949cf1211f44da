package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/moddi-tech/community/internal/domain"
	"github.com/moddi-tech/community/internal/kvstore/memory"
	"github.com/moddi-tech/community/internal/store"
)

func testSeed() []store.SeedUser {
	return []store.SeedUser{
		{
			User: domain.User{
				ID:        1,
				Email:     "admin@example.test",
				FirstName: "Admin",
				Role:      domain.RoleAdmin,
				Avatar:    domain.AvatarForRole(domain.RoleAdmin),
				JoinDate:  "2024-01-01",
				Verified:  true,
			},
			Password: "secret1",
		},
		{
			User: domain.User{
				ID:        2,
				Email:     "ada@example.test",
				FirstName: "Ada",
				Role:      domain.RoleDesigner,
				Avatar:    domain.AvatarForRole(domain.RoleDesigner),
				JoinDate:  "2024-02-01",
				Verified:  true,
			},
			Password: "design123",
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	kv := memory.New()
	logger := zerolog.Nop()

	accounts := store.NewAccountStore(ctx, kv, logger, store.WithSeedUsers(testSeed()))
	feeds := make(map[domain.Category]*store.FeedStore)
	for _, category := range domain.Categories {
		feed, err := store.NewFeedStore(ctx, kv, category, accounts, logger, store.WithoutSeedPosts())
		require.NoError(t, err)
		feeds[category] = feed
	}

	server := httptest.NewServer(NewRouter(RouterConfig{
		Accounts: accounts,
		Feeds:    feeds,
		Logger:   logger,
	}))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func newCookieJar(t *testing.T) http.CookieJar {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func jsonNumber(f float64) string {
	return strconv.FormatInt(int64(f), 10)
}

// loginClient returns a cookie-carrying client logged in as the given
// seed account. The store holds one active session, so each login
// invalidates any earlier client's cookie.
func loginClient(t *testing.T, server *httptest.Server, email, password string) *http.Client {
	t.Helper()
	jar := newCookieJar(t)
	client := &http.Client{Jar: jar}

	resp := postJSON(t, client, server.URL+"/api/auth/login", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode(t, resp)
	require.Equal(t, true, payload["success"])
	return client
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	server := newTestServer(t)
	client := &http.Client{}

	resp := postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"email": "new@example.test", "password": "longenough",
		"firstName": "New", "lastName": "Member", "role": "client",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	payload := decode(t, resp)
	require.Equal(t, true, payload["success"])

	user, ok := payload["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "new@example.test", user["email"])
	require.Equal(t, "💼", user["avatar"])
	_, exposed := user["password"]
	require.False(t, exposed, "password hash must never be exposed")

	// Duplicate email.
	resp = postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"email": "new@example.test", "password": "longenough",
		"firstName": "New", "role": "client",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	payload = decode(t, resp)
	require.Equal(t, false, payload["success"])
	require.Contains(t, payload["message"], "already exists")

	// Short password.
	resp = postJSON(t, client, server.URL+"/api/auth/register", map[string]string{
		"email": "other@example.test", "password": "short",
		"firstName": "Other", "role": "client",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload = decode(t, resp)
	require.Contains(t, payload["message"], "6 characters")
}

func TestLoginLogoutFlow(t *testing.T) {
	server := newTestServer(t)
	client := loginClient(t, server, "admin@example.test", "secret1")

	resp, err := client.Get(server.URL + "/api/auth/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode(t, resp)
	user := payload["user"].(map[string]any)
	require.Equal(t, "admin", user["role"])

	resp = postJSON(t, client, server.URL+"/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(server.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	server := newTestServer(t)
	client := &http.Client{}

	resp := postJSON(t, client, server.URL+"/api/auth/login", map[string]string{
		"email": "admin@example.test", "password": "wrong66",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	payload := decode(t, resp)
	require.Contains(t, payload["message"], "invalid email or password")
}

func TestFeedEndpoints(t *testing.T) {
	server := newTestServer(t)

	// Posting requires authentication.
	resp := postJSON(t, &http.Client{}, server.URL+"/api/feed/news", map[string]string{"content": "Hello world"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Ada posts.
	ada := loginClient(t, server, "ada@example.test", "design123")
	resp = postJSON(t, ada, server.URL+"/api/feed/news", map[string]string{"content": "Hello world"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	payload := decode(t, resp)
	post := payload["post"].(map[string]any)
	postIDNumber := post["id"].(float64)

	// The feed lists it first.
	resp, err := http.Get(server.URL + "/api/feed/news")
	require.NoError(t, err)
	payload = decode(t, resp)
	posts := payload["posts"].([]any)
	require.Len(t, posts, 1)
	require.Equal(t, "Hello world", posts[0].(map[string]any)["content"])

	// Unknown category.
	resp, err = http.Get(server.URL + "/api/feed/likes")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The admin takes over the session, then likes and unlikes.
	admin := loginClient(t, server, "admin@example.test", "secret1")
	likeURL := server.URL + "/api/feed/news/" + jsonNumber(postIDNumber) + "/like"
	resp = postJSON(t, admin, likeURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload = decode(t, resp)
	require.Equal(t, float64(1), payload["likes"])
	require.Equal(t, true, payload["liked"])

	resp = postJSON(t, admin, likeURL, nil)
	payload = decode(t, resp)
	require.Equal(t, float64(0), payload["likes"])
	require.Equal(t, false, payload["liked"])

	// Admin deletes Ada's post.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/feed/news/"+jsonNumber(postIDNumber), nil)
	require.NoError(t, err)
	resp, err = admin.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/feed/news")
	require.NoError(t, err)
	payload = decode(t, resp)
	require.Empty(t, payload["posts"])
}

func TestReviewRequiresRating(t *testing.T) {
	server := newTestServer(t)
	ada := loginClient(t, server, "ada@example.test", "design123")

	resp := postJSON(t, ada, server.URL+"/api/feed/reviews", map[string]any{"content": "Great service overall"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := decode(t, resp)
	require.Contains(t, payload["message"], "rating")

	resp = postJSON(t, ada, server.URL+"/api/feed/reviews", map[string]any{"content": "Great service overall", "rating": 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestUserEndpoints(t *testing.T) {
	server := newTestServer(t)
	admin := loginClient(t, server, "admin@example.test", "secret1")

	// Directory excludes the caller.
	resp, err := admin.Get(server.URL + "/api/users")
	require.NoError(t, err)
	payload := decode(t, resp)
	users := payload["users"].([]any)
	require.Len(t, users, 1)
	require.Equal(t, "ada@example.test", users[0].(map[string]any)["email"])

	// Search spans the whole roster.
	resp, err = admin.Get(server.URL + "/api/users?q=admin")
	require.NoError(t, err)
	payload = decode(t, resp)
	require.Len(t, payload["users"].([]any), 1)

	// Lookup by id.
	resp, err = admin.Get(server.URL + "/api/users/2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload = decode(t, resp)
	require.Equal(t, "Ada", payload["user"].(map[string]any)["firstName"])

	resp, err = admin.Get(server.URL + "/api/users/999")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileUpdateAuthorization(t *testing.T) {
	server := newTestServer(t)

	patch := func(client *http.Client, id string, body map[string]any) *http.Response {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPatch, server.URL+"/api/users/"+id, bytes.NewReader(data))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		require.NoError(t, err)
		return resp
	}

	// Ada edits their own bio.
	ada := loginClient(t, server, "ada@example.test", "design123")
	resp := patch(ada, "2", map[string]any{"bio": "Designing things"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode(t, resp)
	require.Equal(t, "Designing things", payload["user"].(map[string]any)["bio"])

	// Ada may not edit the admin.
	resp = patch(ada, "1", map[string]any{"bio": "hijacked"})
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The admin may edit anyone.
	admin := loginClient(t, server, "admin@example.test", "secret1")
	resp = patch(admin, "2", map[string]any{"verified": true, "bio": "Vetted designer"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload = decode(t, resp)
	require.Equal(t, "Vetted designer", payload["user"].(map[string]any)["bio"])
}

func TestUserPostsEndpoint(t *testing.T) {
	server := newTestServer(t)
	ada := loginClient(t, server, "ada@example.test", "design123")

	for _, content := range []string{"first update", "second update"} {
		resp := postJSON(t, ada, server.URL+"/api/feed/news", map[string]string{"content": content})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(server.URL + "/api/users/2/posts?category=news")
	require.NoError(t, err)
	payload := decode(t, resp)
	require.Equal(t, float64(2), payload["count"])
	require.Len(t, payload["posts"].([]any), 2)

	// All categories at once.
	resp, err = http.Get(server.URL + "/api/users/2/posts")
	require.NoError(t, err)
	payload = decode(t, resp)
	counts := payload["counts"].(map[string]any)
	require.Equal(t, float64(2), counts["news"])
	require.Equal(t, float64(0), counts["reviews"])
}
