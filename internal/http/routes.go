package http

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/ws"
)

const (
	rateLimitRPS   = 1.0 / 3.0 // 1 request every 3 seconds
	rateLimitBurst = 1
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(router *gin.Engine, env *Env) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "*" // Default to allow all for local dev
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token", "X-Admin-Actor"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	limiter := NewIPRateLimiter(rate.Limit(rateLimitRPS), rateLimitBurst)
	go func() {
		for {
			time.Sleep(10 * time.Minute)
			limiter.Cleanup()
		}
	}()

	api := router.Group("/api")
	{
		api.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "frikt API", "status": "healthy"})
		})
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		api.POST("/auth/register", env.Register)
		api.POST("/auth/login", env.Login)
		api.GET("/auth/me", env.RequireAuth(), env.Me)

		api.GET("/categories", env.GetCategories)
		api.POST("/categories/:id/follow", env.RequireAuth(), env.FollowCategory)
		api.DELETE("/categories/:id/follow", env.RequireAuth(), env.UnfollowCategory)

		api.GET("/mission", env.GetMission)

		api.GET("/problems", env.OptionalAuth(), env.GetProblems)
		api.POST("/problems", env.RequireAuth(), RateLimitMiddleware(limiter), env.CreateProblem)
		// /problems/similar must register before /problems/:id.
		api.GET("/problems/similar", env.GetSimilarProblems)
		api.GET("/problems/:id", env.OptionalAuth(), env.GetProblem)
		api.GET("/problems/:id/related", env.GetRelatedProblems)

		api.POST("/problems/:id/relate", env.RequireAuth(), env.RelateToProblem)
		api.DELETE("/problems/:id/relate", env.RequireAuth(), env.UnrelateFromProblem)
		api.POST("/problems/:id/save", env.RequireAuth(), env.SaveProblem)
		api.DELETE("/problems/:id/save", env.RequireAuth(), env.UnsaveProblem)
		api.POST("/problems/:id/follow", env.RequireAuth(), env.FollowProblem)
		api.DELETE("/problems/:id/follow", env.RequireAuth(), env.UnfollowProblem)
		api.POST("/problems/:id/report", env.RequireAuth(), env.ReportProblem)

		api.POST("/comments", env.RequireAuth(), env.CreateComment)
		api.GET("/problems/:id/comments", env.OptionalAuth(), env.GetComments)
		api.POST("/comments/:id/helpful", env.RequireAuth(), env.MarkCommentHelpful)
		api.DELETE("/comments/:id/helpful", env.RequireAuth(), env.UnmarkCommentHelpful)

		api.GET("/notifications", env.RequireAuth(), env.GetNotifications)
		api.POST("/notifications/read", env.RequireAuth(), env.MarkNotificationsRead)
		api.POST("/notifications/:id/read", env.RequireAuth(), env.MarkNotificationRead)

		api.GET("/users/me/saved", env.RequireAuth(), env.GetSavedProblems)
		api.GET("/users/me/posts", env.RequireAuth(), env.GetMyPosts)
		api.GET("/users/:id/stats", env.GetUserStats)
		api.POST("/users/:id/block", env.RequireAuth(), env.BlockUser)
		api.DELETE("/users/:id/block", env.RequireAuth(), env.UnblockUser)
	}

	admin := router.Group("/api/admin", AdminAuthMiddleware())
	{
		admin.POST("/problems/:id/status", env.AdminSetStatus)
		admin.POST("/problems/:id/pin", env.AdminSetPinned)
		admin.POST("/problems/:id/needs-context", env.AdminSetNeedsContext)
		admin.POST("/problems/:id/merge", env.AdminMergeProblem)
		admin.DELETE("/problems/:id", env.AdminDeleteProblem)
		admin.GET("/audit", env.AdminListAudit)
	}

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(env.Hub, c.Writer, c.Request)
	})
}
