package server

import (
	"net/http"
	"strings"
	"time"

	"anoa.com/aiiforsaxp/internal/config"
	"anoa.com/aiiforsaxp/internal/middleware"

	notiHttp "anoa.com/aiiforsaxp/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/aiiforsaxp/internal/modules/notification/repository"
	notifService "anoa.com/aiiforsaxp/internal/modules/notification/service"

	xpHttp "anoa.com/aiiforsaxp/internal/modules/xp/delivery/http"
	xpRepo "anoa.com/aiiforsaxp/internal/modules/xp/repository"
	xpService "anoa.com/aiiforsaxp/internal/modules/xp/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	origins := allowedOrigins(cfg.AllowedOrigins)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, originChecker(origins))

	// XP Module
	xpRepository := xpRepo.NewXPRepository(db)
	countProvider := xpRepo.NewCountProvider(db)
	xpSvc := xpService.NewXPService(xpRepository, countProvider, xpService.Settings{
		MaxDailyChallenges: cfg.MaxDailyChallenges,
		DayLocation:        cfg.DayLocation,
	})
	xpHandler := xpHttp.NewXPHandler(xpSvc, notificationSvc)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// XP routes
		xp := protected.Group("/users/me/xp")
		xp.GET("", xpHandler.GetStatus)
		xp.POST("/events", middleware.RateLimit(redisClient, "xp_event", cfg.RateLimitXPEvent), xpHandler.TriggerEvent)
		xp.POST("/daily-challenge", xpHandler.CompleteDailyChallenge)
		xp.POST("/check-milestones", xpHandler.CheckMilestones)
		xp.POST("/achievements/:achievementId/redeem", xpHandler.RedeemAchievement)
		xp.GET("/achievements", xpHandler.GetAchievements)
		xp.GET("/badges", xpHandler.GetBadges)
		xp.GET("/leaderboard", xpHandler.GetLeaderboard)
		xp.GET("/keys", xpHandler.GetEventKeys)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/archive", notificationHandler.Archive)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// originChecker applies the CORS allow-list to websocket upgrades.
func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
