package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/middleware"
	communityRepo "anoa.com/pencraft/internal/modules/community/repository"
	notifRepo "anoa.com/pencraft/internal/modules/notification/repository"
	notification "anoa.com/pencraft/internal/modules/notification/service"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	user "anoa.com/pencraft/internal/modules/user/service"
	"anoa.com/pencraft/pkg/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	service notification.NotificationService
	user    *entity.User
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := userRepo.NewMemoryUserRepository()
	tokens := user.NewTokenIssuer("secret", time.Hour)
	authSvc := user.NewAuthService(users, communityRepo.NewMemoryCommunityRepository(), userRepo.NewMemorySessionStore(), tokens, events.NewNoopPublisher())
	svc := notification.NewNotificationService(notifRepo.NewMemoryNotificationRepository(), users, notification.NewMemoryFeed())
	h := NewNotificationHandler(svc, nil)
	mw := middleware.NewAuthMiddleware(authSvc)

	r := gin.New()
	g := r.Group("/api/notifications", mw.RequireAuth())
	g.GET("", h.GetNotifications)
	g.GET("/unread-count", h.UnreadCount)
	g.GET("/ws", h.HandleWebSocket)
	g.PUT("/read-all", h.MarkAllAsRead)
	g.PUT("/:id/read", h.MarkAsRead)
	g.DELETE("/:id", h.Delete)
	g.DELETE("", h.ClearAll)

	u := &entity.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, users.Create(context.Background(), u))
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)

	return &testEnv{router: r, service: svc, user: u, token: token}
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seed(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		notif := &entity.Notification{UserID: e.user.ID, Type: entity.NotificationComment, Message: "ping"}
		require.NoError(t, e.service.CreateNotification(context.Background(), notif))
		ids[i] = notif.ID
	}
	return ids
}

type listBody struct {
	Notifications []struct {
		ID   string `json:"id"`
		Read bool   `json:"read"`
	} `json:"notifications"`
	UnreadCount int64 `json:"unread_count"`
}

func TestNotificationEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ids := env.seed(t, 3)

	w := env.do(http.MethodGet, "/api/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	var list listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Notifications, 3)
	assert.EqualValues(t, 3, list.UnreadCount)

	w = env.do(http.MethodPut, "/api/notifications/"+ids[0].String()+"/read")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/notifications/unread-count")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())

	w = env.do(http.MethodPut, "/api/notifications/"+uuid.NewString()+"/read")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/api/notifications/read-all")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/api/notifications/"+ids[1].String())
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/notifications")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Notifications, 2)
	assert.Zero(t, list.UnreadCount)

	w = env.do(http.MethodDelete, "/api/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/notifications")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.Notifications)
}

func TestNotificationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebSocketStreamsNewNotifications(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws?token=" + env.token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is registered before the upgrade completes
	ids := env.seed(t, 1)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, ids[0].String(), got.ID)
	assert.Equal(t, "ping", got.Message)
}
