package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3"
	limitergin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

type contextKey string

const loggerKey = contextKey("logger")

// DevOrigins are always allowed by CORS.
var DevOrigins = []string{"http://localhost:5173", "http://localhost:5174"}

// RequestLogger injects a request-scoped logger tagged with a fresh request id.
func RequestLogger(baseLogger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		requestLogger := baseLogger.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)

		c.Header("X-Request-ID", requestID)
		c.Set(string(loggerKey), requestLogger)

		c.Next()

		requestLogger.Info("Request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// LoggerFrom returns the request-scoped logger, or the default one.
func LoggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(string(loggerKey)); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// RequireAdmin rejects requests whose admin header does not match token.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validAdminToken(token, c.GetHeader(AdminTokenHeader)) {
			LoggerFrom(c).Warn("Rejected admin request", slog.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "Unauthorized: invalid admin token"})
			return
		}
		c.Next()
	}
}

func validAdminToken(want, got string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// RateLimit allows limit requests per client IP in each window.
func RateLimit(limit int64, window time.Duration) gin.HandlerFunc {
	l := limiter.New(memory.NewStore(), limiter.Rate{Period: window, Limit: limit})

	return limitergin.NewMiddleware(l,
		limitergin.WithLimitReachedHandler(func(c *gin.Context) {
			LoggerFrom(c).Warn("Rate limit exceeded", slog.String("ip", c.ClientIP()), slog.Int64("limit", limit))
			c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "Too many requests. Please try again later."})
		}),
		limitergin.WithErrorHandler(func(c *gin.Context, err error) {
			LoggerFrom(c).Error("Failed to get rate limit context", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Internal server error during rate limit check"})
		}),
	)
}

// CORS allows the dev origins plus the configured frontend origins.
// Requests without an Origin header are not cross-origin and pass through.
func CORS(frontendOrigins []string) gin.HandlerFunc {
	allowed := append(slices.Clone(DevOrigins), frontendOrigins...)

	return cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return slices.Contains(allowed, origin)
		},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", AdminTokenHeader},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	})
}
