package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staycal/internal/app/middleware"
	"staycal/internal/infra/config"
	"staycal/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Payload(c *gin.Context)
	Days(c *gin.Context)
	ExportICS(c *gin.Context)
	ImportJSON(c *gin.Context)
	ImportICS(c *gin.Context)
	Publish(c *gin.Context)
}

type SessionHTTP interface {
	Open(c *gin.Context)
	Hover(c *gin.Context)
	Leave(c *gin.Context)
	Click(c *gin.Context)
	Close(c *gin.Context)
	Navigate(c *gin.Context)
	View(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Sessions     SessionHTTP
	RateLimit    gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.CalendarEndpoint, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter mounts the widget fetch endpoint under endpoint (which ends in a
// slash) and the management API under /api/v1.
func NewRouter(endpoint string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", "X-Operator-Token", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	router.Use(operatorToken())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	limited := router.Group("")
	if h.RateLimit != nil {
		limited.Use(h.RateLimit)
	}
	if h.Availability != nil {
		if endpoint == "" {
			endpoint = "/hai/availabilityCalendar/"
		}
		limited.GET(endpoint+":propertyID", h.Availability.Payload)
	}

	api := limited.Group("/api/v1")
	if h.Availability != nil {
		props := api.Group("/properties/:id")
		props.GET("/days", h.Availability.Days)
		props.GET("/calendar.ics", h.Availability.ExportICS)
		props.PUT("/calendar", h.Availability.ImportJSON)
		props.POST("/calendar.ics", h.Availability.ImportICS)
		props.POST("/publish", h.Availability.Publish)
	}
	if h.Sessions != nil {
		api.POST("/sessions", h.Sessions.Open)
		sess := api.Group("/sessions/:id")
		sess.POST("/hover", h.Sessions.Hover)
		sess.POST("/leave", h.Sessions.Leave)
		sess.POST("/click", h.Sessions.Click)
		sess.POST("/close", h.Sessions.Close)
		sess.POST("/navigate", h.Sessions.Navigate)
		sess.GET("/view", h.Sessions.View)
	}
	return router
}

// operatorToken hands X-Operator-Token (or a bearer token) to the command
// authorizer.
func operatorToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Operator-Token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token != "" {
			c.Request = c.Request.WithContext(middleware.WithOperatorToken(c.Request.Context(), token))
		}
		c.Next()
	}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
