package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/middleware"
	"anoa.com/pencraft/internal/modules/community/repository"
	community "anoa.com/pencraft/internal/modules/community/service"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	user "anoa.com/pencraft/internal/modules/user/service"
	"anoa.com/pencraft/pkg/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	users  userRepo.UserRepository
	tokens *user.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := userRepo.NewMemoryUserRepository()
	communities := repository.NewMemoryCommunityRepository()
	publisher := events.NewNoopPublisher()
	tokens := user.NewTokenIssuer("secret", time.Hour)

	authSvc := user.NewAuthService(users, communities, userRepo.NewMemorySessionStore(), tokens, publisher)
	h := NewCommunityHandler(community.NewCommunityService(communities, users, nil, nil, publisher))
	mw := middleware.NewAuthMiddleware(authSvc)

	r := gin.New()
	api := r.Group("/api")
	api.GET("/communities", mw.OptionalAuth(), h.ListCommunities)
	api.POST("/communities", mw.RequireAuth(), h.CreateCommunity)
	api.GET("/communities/:id", mw.OptionalAuth(), h.GetCommunity)
	api.POST("/communities/:id/join", mw.RequireAuth(), h.Join)
	api.POST("/communities/:id/leave", mw.RequireAuth(), h.Leave)
	api.GET("/communities/:id/members", h.Members)
	api.POST("/users/:id/join-community", mw.RequireAuth(), h.JoinForUser)
	api.POST("/users/:id/leave-community", mw.RequireAuth(), h.LeaveForUser)

	return &testEnv{router: r, users: users, tokens: tokens}
}

func (e *testEnv) login(t *testing.T, username string) (*entity.User, string) {
	t.Helper()
	u := &entity.User{Username: username, Email: username + "@example.com", FirstName: username}
	require.NoError(t, e.users.Create(context.Background(), u))
	token, _, err := e.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type communityBody struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Community struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Members     []string `json:"members"`
		MemberCount int      `json:"member_count"`
		IsJoined    bool     `json:"is_joined"`
	} `json:"community"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) communityBody {
	t.Helper()
	var body communityBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateAndJoinCommunity(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.login(t, "owner")
	_, guestToken := env.login(t, "guest")

	w := env.do(http.MethodPost, "/api/communities", ownerToken, map[string]any{
		"name": "Tech Enthusiasts", "category": "technology", "rules": []string{"Be kind"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.True(t, created.Community.IsJoined)

	w = env.do(http.MethodPost, "/api/communities/"+created.Community.ID+"/join", guestToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode(t, w).Community.MemberCount)

	w = env.do(http.MethodPost, "/api/communities/"+created.Community.ID+"/join", guestToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user is already a member of this community", decode(t, w).Error)

	w = env.do(http.MethodGet, "/api/communities/"+created.Community.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 2, body.Community.MemberCount)
	assert.False(t, body.Community.IsJoined)
}

func TestCreateCommunityValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.login(t, "owner")

	w := env.do(http.MethodPost, "/api/communities", "", map[string]any{"name": "No Auth"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/communities", token, map[string]any{"name": "Bad", "category": "gaming"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/communities/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserMembershipRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.login(t, "owner")
	guest, guestToken := env.login(t, "guest")
	other, _ := env.login(t, "other")

	w := env.do(http.MethodPost, "/api/communities", ownerToken, map[string]any{"name": "Travel"})
	require.Equal(t, http.StatusCreated, w.Code)
	communityID := decode(t, w).Community.ID

	w = env.do(http.MethodPost, "/api/users/"+other.ID.String()+"/join-community", guestToken, map[string]string{"community_id": communityID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/users/"+guest.ID.String()+"/join-community", guestToken, map[string]string{"community_id": communityID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w).Community.Members, guest.ID.String())

	w = env.do(http.MethodPost, "/api/users/"+guest.ID.String()+"/leave-community", guestToken, map[string]string{"community_id": communityID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Community.MemberCount)

	w = env.do(http.MethodPost, "/api/users/"+guest.ID.String()+"/leave-community", guestToken, map[string]string{"community_id": communityID})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/communities/"+communityID+"/members", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members struct {
		Members []struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	require.Len(t, members.Members, 1)
	assert.Equal(t, "moderator", members.Members[0].Role)
}
