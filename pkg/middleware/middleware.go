package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Config holds middleware configuration
type Config struct {
	Logger            *slog.Logger
	ServiceName       string
	AllowOrigins      []string
	EnableRateLimiter bool
	RateLimitRPS      int
	RateLimitBurst    int
	TrustedProxies    []string
}

// DefaultConfig returns a default middleware configuration
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		Logger:            logger,
		ServiceName:       serviceName,
		AllowOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
		EnableRateLimiter: true,
		RateLimitRPS:      50,
		RateLimitBurst:    100,
	}
}

// Setup applies all standard middleware to a Gin router
func Setup(router *gin.Engine, config *Config) {
	InitValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	router.Use(Recovery(config.Logger))
	router.Use(cors.New(CORSConfig(config.AllowOrigins)))
	router.Use(RequestID())
	router.Use(CorrelationID())
	router.Use(Operator())
	router.Use(Logger(config.Logger))
	router.Use(InputSanitizer())

	if config.EnableRateLimiter {
		router.Use(NewClientRateLimiter(config.RateLimitRPS, config.RateLimitBurst).Middleware())
	}

	router.Use(ContentType())
	router.Use(ErrorHandler(config.Logger))
}

// CORSConfig returns the cors settings used for console front ends
func CORSConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", HeaderRequestID, HeaderCorrelationID, HeaderOperator},
		ExposeHeaders:    []string{"Content-Length", HeaderRequestID, HeaderCorrelationID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// HealthCheck creates a health check handler
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	}
}

// ReadinessCheck creates a readiness check handler with custom check function
func ReadinessCheck(serviceName string, checkFn func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := checkFn(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not ready",
				"service": serviceName,
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"service": serviceName,
		})
	}
}

// NoRoute handles 404 errors with proper error format
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, APIErrorResponse{
			Code:      "ROUTE_NOT_FOUND",
			Message:   "The requested resource was not found",
			RequestID: GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		})
	}
}

// NoMethod handles 405 errors with proper error format
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, APIErrorResponse{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   "The request method is not supported for this resource",
			RequestID: GetRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      c.Request.URL.Path,
		})
	}
}
