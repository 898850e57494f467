package server

import (
	"net/http"
	"time"

	"anoa.com/pencraft/internal/bootstrap"
	"anoa.com/pencraft/internal/config"
	"anoa.com/pencraft/internal/middleware"
	"anoa.com/pencraft/pkg/events"
	"anoa.com/pencraft/pkg/metrics"
	"anoa.com/pencraft/pkg/storage"

	attachmentHttp "anoa.com/pencraft/internal/modules/attachment/delivery/http"

	communityHttp "anoa.com/pencraft/internal/modules/community/delivery/http"
	communityService "anoa.com/pencraft/internal/modules/community/service"

	notifHttp "anoa.com/pencraft/internal/modules/notification/delivery/http"
	notifService "anoa.com/pencraft/internal/modules/notification/service"

	postHttp "anoa.com/pencraft/internal/modules/post/delivery/http"
	postService "anoa.com/pencraft/internal/modules/post/service"

	profileHttp "anoa.com/pencraft/internal/modules/profile/delivery/http"
	profileService "anoa.com/pencraft/internal/modules/profile/service"

	searchHttp "anoa.com/pencraft/internal/modules/search/delivery/http"
	searchService "anoa.com/pencraft/internal/modules/search/service"

	statHttp "anoa.com/pencraft/internal/modules/stat/delivery/http"
	statService "anoa.com/pencraft/internal/modules/stat/service"

	userHttp "anoa.com/pencraft/internal/modules/user/delivery/http"
	userRepo "anoa.com/pencraft/internal/modules/user/repository"
	userService "anoa.com/pencraft/internal/modules/user/service"

	viewService "anoa.com/pencraft/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps are the external resources the server is built on. Redis, Meili and
// Images may be nil; in-process fallbacks are used instead.
type Deps struct {
	Repos     *bootstrap.Repositories
	Redis     *redis.Client
	Publisher events.Publisher
	Images    storage.ImageStorage
	Meili     *searchService.MeiliIndexer
}

type Server struct {
	engine *gin.Engine
	// ViewSync is nil when views are written straight to the repository.
	ViewSync *viewService.SyncJob
}

func New(cfg *config.Config, deps Deps) *Server {
	repos := deps.Repos
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	images := deps.Images
	if images == nil {
		images = storage.NewDisabledStorage()
	}

	sessions := userRepo.NewMemorySessionStore()
	feed := notifService.NewMemoryFeed()
	if deps.Redis != nil {
		sessions = userRepo.NewRedisSessionStore(deps.Redis)
		feed = notifService.NewRedisFeed(deps.Redis)
	}

	tokens := userService.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := userService.NewAuthService(repos.Users, repos.Communities, sessions, tokens, publisher)
	authHandler := userHttp.NewAuthHandler(authSvc)
	userSvc := userService.NewUserService(repos.Users, repos.Communities, publisher)
	userHandler := userHttp.NewUserHandler(userSvc)

	notificationSvc := notifService.NewNotificationService(repos.Notifications, repos.Users, feed)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, cfg.AllowedOrigins)

	communitySvc := communityService.NewCommunityService(repos.Communities, repos.Users, repos.Posts, notificationSvc, publisher)
	communityHandler := communityHttp.NewCommunityHandler(communitySvc)

	var (
		indexer  postService.Indexer
		fullText searchService.FullText
	)
	if deps.Meili != nil {
		indexer = deps.Meili
		fullText = deps.Meili
	}

	var (
		views    postService.ViewCounter
		viewSync *viewService.SyncJob
	)
	if deps.Redis != nil {
		viewSvc := viewService.NewViewService(viewService.NewRedisStore(deps.Redis), repos.Posts)
		views = viewSvc
		viewSync = viewService.NewSyncJob(viewSvc, cfg.ViewSyncSchedule)
	}

	postSvc := postService.NewPostService(repos.Posts, repos.Users, repos.Communities, notificationSvc, indexer, views, images, publisher)
	postHandler := postHttp.NewPostHandler(postSvc)

	searchSvc := searchService.NewSearchService(repos.Posts, repos.Users, fullText)
	searchHandler := searchHttp.NewSearchHandler(searchSvc)

	statSvc := statService.NewStatService(repos.Users, repos.Posts, repos.Communities, searchSvc)
	statHandler := statHttp.NewStatHandler(statSvc)
	profileHandler := profileHttp.NewProfileHandler(profileService.NewProfileService(repos.Users, repos.Posts, repos.Communities))

	attachmentHandler := attachmentHttp.NewAttachmentHandler(images)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	router.Use(metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler())

	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	requireAuth := authMiddleware.RequireAuth()
	optionalAuth := authMiddleware.OptionalAuth()

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.PUT("/password", requireAuth, authHandler.ChangePassword)
	}

	blogs := api.Group("/blogs")
	{
		blogs.GET("", optionalAuth, postHandler.ListPosts)
		blogs.POST("", requireAuth, postHandler.CreatePost)
		blogs.GET("/trending", statHandler.GetTrendingPosts)
		blogs.GET("/:id", optionalAuth, postHandler.GetPost)
		blogs.PUT("/:id", requireAuth, postHandler.UpdatePost)
		blogs.DELETE("/:id", requireAuth, postHandler.DeletePost)
		blogs.POST("/:id/like", requireAuth, postHandler.ToggleLike)
		blogs.POST("/:id/comments", requireAuth, postHandler.AddComment)
		blogs.DELETE("/:id/comments/:commentId", requireAuth, postHandler.DeleteComment)
		blogs.POST("/:id/save", requireAuth, postHandler.SavePost)
		blogs.DELETE("/:id/save", requireAuth, postHandler.UnsavePost)
	}

	communities := api.Group("/communities")
	{
		communities.GET("", optionalAuth, communityHandler.ListCommunities)
		communities.POST("", requireAuth, communityHandler.CreateCommunity)
		communities.GET("/:id", optionalAuth, communityHandler.GetCommunity)
		communities.POST("/:id/join", requireAuth, communityHandler.Join)
		communities.POST("/:id/leave", requireAuth, communityHandler.Leave)
		communities.GET("/:id/members", communityHandler.Members)
	}

	users := api.Group("/users")
	{
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", requireAuth, userHandler.UpdateUser)
		users.GET("/:id/saved", requireAuth, postHandler.SavedPosts)
		users.POST("/:id/join-community", requireAuth, communityHandler.JoinForUser)
		users.POST("/:id/leave-community", requireAuth, communityHandler.LeaveForUser)
		users.PUT("/:id/communities/:communityId", requireAuth, userHandler.AddCommunity)
		users.DELETE("/:id/communities/:communityId", requireAuth, userHandler.RemoveCommunity)
	}

	notifications := api.Group("/notifications", requireAuth)
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.DELETE("", notificationHandler.ClearAll)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
		notifications.DELETE("/:id", notificationHandler.Delete)
		notifications.GET("/ws", notificationHandler.HandleWebSocket)
	}

	api.GET("/search", searchHandler.Search)
	api.GET("/search/posts", searchHandler.SearchPosts)
	api.GET("/explore", searchHandler.Explore)
	api.GET("/stats", statHandler.GetTotals)
	api.GET("/profiles/:username", profileHandler.GetProfileByUsername)

	api.POST("/upload", requireAuth, attachmentHandler.UploadImage)

	return &Server{
		engine:   router,
		ViewSync: viewSync,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
