package routes

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kcloud-opt/loadsched/api/handlers"
	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/logger"
	"github.com/kcloud-opt/loadsched/internal/metrics"
)

// Router sets up all the routes for the load-scheduling API.
type Router struct {
	handlers  *handlers.Handlers
	config    *config.Config
	logger    *logger.Logger
	metricsMW *metrics.MetricsMiddleware
}

// NewRouter creates a new router instance. metricsMW may be nil when
// monitoring is disabled.
func NewRouter(handlers *handlers.Handlers, config *config.Config, logger *logger.Logger, metricsMW *metrics.MetricsMiddleware) *Router {
	return &Router{
		handlers:  handlers,
		config:    config,
		logger:    logger,
		metricsMW: metricsMW,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.config.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.setupMiddleware(router)
	r.setupHealthRoutes(router)
	r.setupAPIRoutes(router)

	return router
}

func (r *Router) setupMiddleware(router *gin.Engine) {
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))

	router.Use(gin.Recovery())

	if r.metricsMW != nil {
		router.Use(r.metricsMW.HTTPMetricsMiddleware())
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	})
}

func (r *Router) setupHealthRoutes(router *gin.Engine) {
	router.GET("/health", r.handlers.Health.Health)
	router.GET("/live", r.handlers.Health.Liveness)
	router.GET("/info", r.handlers.Health.Info)
}

func (r *Router) setupAPIRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/schedule", r.handlers.Schedule.PostSchedule)
	}
}

// generateRequestID generates a unique request ID.
func generateRequestID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
