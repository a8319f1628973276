package http

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/karolisbudreckas92-sys/frikt-backend/internal/auth"
	"github.com/karolisbudreckas92-sys/frikt-backend/internal/models"
)

const userKey = "currentUser"

// RequireAuth verifies the Bearer token and loads the user; unauthenticated
// requests are rejected.
func (e *Env) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := e.userFromToken(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and continues
// anonymously otherwise. Feeds personalize when they can.
func (e *Env) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := e.userFromToken(c); user != nil {
			c.Set(userKey, user)
		}
		c.Next()
	}
}

func (e *Env) userFromToken(c *gin.Context) *models.User {
	header := c.GetHeader("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return nil
	}
	userID, err := auth.ParseToken(tokenStr, e.JWTSecret)
	if err != nil {
		return nil
	}
	var user models.User
	if err := e.DB.First(&user, "id = ?", userID).Error; err != nil {
		return nil
	}
	return &user
}

// currentUser returns the authenticated user; only valid behind RequireAuth.
func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

// optionalUser returns the user or nil behind OptionalAuth.
func optionalUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		return v.(*models.User)
	}
	return nil
}

// AdminAuthMiddleware checks for a secret X-Admin-Token header.
func AdminAuthMiddleware() gin.HandlerFunc {
	requiredToken := os.Getenv("X_ADMIN_TOKEN")

	// Fail closed on a missing token; this is a critical misconfiguration.
	if requiredToken == "" {
		panic("CRITICAL: X_ADMIN_TOKEN environment variable not set.")
	}

	return func(c *gin.Context) {
		suppliedToken := c.GetHeader("X-Admin-Token")
		if suppliedToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Admin token required"})
			return
		}
		if suppliedToken != requiredToken {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Invalid admin token"})
			return
		}
		c.Next()
	}
}

// adminActor identifies the human behind an admin request for the audit
// log. The shared admin token doesn't name anyone, so the actor rides in
// its own header.
func adminActor(c *gin.Context) string {
	if actor := c.GetHeader("X-Admin-Actor"); actor != "" {
		return actor
	}
	return "admin"
}

// SecurityHeadersMiddleware adds basic, sensible security headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}

// --- Rate Limiter ---

type IPRateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.RWMutex
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      r,
		burst:    b,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = limiter
	}
	return limiter
}

// Cleanup drops limiters that have refilled, so the visitor map doesn't
// grow without bound. Meant to be called periodically.
func (rl *IPRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if v.Allow() {
			delete(rl.visitors, ip)
		}
	}
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}
