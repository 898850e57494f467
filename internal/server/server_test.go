package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/pencraft/internal/bootstrap"
	"anoa.com/pencraft/internal/config"
	"anoa.com/pencraft/pkg/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c *client) do(method, path, token string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(w.Body.Bytes()), []byte("{")) {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (c *client) register(username string) string {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(c.t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func newTestServer(t *testing.T) (*client, *events.Recorder) {
	t.Helper()
	recorder := events.NewRecorder()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTTTL:           time.Hour,
		AllowedOrigins:   []string{"http://localhost:3000"},
		ViewSyncSchedule: "@every 1m",
	}
	srv := New(cfg, Deps{Repos: bootstrap.NewMemoryRepositories(), Publisher: recorder})
	assert.Nil(t, srv.ViewSync)
	return &client{t: t, handler: srv.Handler()}, recorder
}

func TestServer_Health(t *testing.T) {
	c, _ := newTestServer(t)

	code, body := c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = c.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_EngagementFlow(t *testing.T) {
	c, recorder := newTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")

	code, body := c.do(http.MethodPost, "/api/blogs", alice, map[string]any{
		"title":    "Hello PenCraft",
		"content":  "<p>first post</p>",
		"category": "technology",
		"tags":     []string{"intro"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	postID := body["blog"].(map[string]any)["id"].(string)

	code, body = c.do(http.MethodPost, "/api/blogs/"+postID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["liked"])

	code, body = c.do(http.MethodPost, "/api/blogs/"+postID+"/comments", bob, map[string]any{"content": "nice"})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = c.do(http.MethodGet, "/api/notifications/unread-count", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["count"])

	code, body = c.do(http.MethodGet, "/api/blogs/"+postID, bob, nil)
	require.Equal(t, http.StatusOK, code)
	blog := body["blog"].(map[string]any)
	assert.Equal(t, float64(1), blog["likes"])
	assert.Equal(t, true, blog["is_liked"])

	code, body = c.do(http.MethodGet, "/api/search?q=pencraft&filter=posts", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["posts"], 1)

	code, body = c.do(http.MethodGet, "/api/blogs/trending?limit=5", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["posts"], 1)

	code, body = c.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["total_users"])
	assert.Equal(t, float64(1), body["total_posts"])

	code, body = c.do(http.MethodGet, "/api/profiles/alice", "", nil)
	require.Equal(t, http.StatusOK, code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["posts"])
	assert.Equal(t, float64(1), stats["likes_received"])
	assert.Equal(t, float64(1), stats["comments_received"])

	code, _ = c.do(http.MethodGet, "/api/search/posts?q=pencraft", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = c.do(http.MethodPost, "/api/blogs", "", map[string]any{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, code)

	assert.Contains(t, recorder.Subjects(), events.PostCreated)
	assert.Contains(t, recorder.Subjects(), events.PostLiked)
	assert.Contains(t, recorder.Subjects(), events.UserRegistered)
}

func TestServer_CommunityMembership(t *testing.T) {
	c, _ := newTestServer(t)
	alice := c.register("alice")
	bob := c.register("bob")

	code, body := c.do(http.MethodPost, "/api/communities", alice, map[string]any{
		"name":        "Gophers",
		"description": "All things Go",
		"category":    "technology",
	})
	require.Equal(t, http.StatusCreated, code, body)
	communityID := body["community"].(map[string]any)["id"].(string)

	code, _ = c.do(http.MethodPost, "/api/communities/"+communityID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodPost, "/api/communities/"+communityID+"/join", bob, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = c.do(http.MethodGet, "/api/auth/me", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{communityID}, body["user"].(map[string]any)["communities"])

	code, body = c.do(http.MethodGet, "/api/communities/"+communityID+"/members", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["members"], 2)
}
