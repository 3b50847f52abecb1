package router

import (
	"net/http"
	"time"

	"keytrace/internal/aggregate"
	"keytrace/internal/capture"
	"keytrace/internal/config"
	"keytrace/internal/handlers"
	"keytrace/internal/models"
	"keytrace/internal/session"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

const sessionCookieName = "keytrace"

// Dependencies are the services the HTTP layer routes to.
type Dependencies struct {
	Registry  *capture.Registry
	Summaries *aggregate.Service
	Catalog   *models.TaskCatalog
	Sessions  session.Provider
	Gatherer  prometheus.Gatherer
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

func Setup(log *zap.Logger, cfg config.ServerConfig, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 30,
	})
	router.Use(sessions.Sessions(sessionCookieName, store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	sessionHandler := handlers.NewSessionHandler(log, deps.Sessions)
	tasksHandler := handlers.NewTasksHandler(deps.Catalog)
	captureHandler := handlers.NewCaptureHandler(log, deps.Registry, deps.Catalog)
	summariesHandler := handlers.NewSummariesHandler(log, deps.Summaries)

	limit := cfg.SessionRateLimit
	if limit == 0 {
		limit = 30
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	api := router.Group("/api")
	api.Use(CSRFToken())
	{
		api.POST("/session", limiter, sessionHandler.Issue)
		api.GET("/tasks", tasksHandler.List)
	}

	authorized := api.Group("")
	authorized.Use(session.Required(deps.Sessions))
	if cfg.CSRF {
		authorized.Use(CSRFRequired())
	}
	{
		screenRoutes := authorized.Group("/screens")
		{
			screenRoutes.POST("", captureHandler.Attach)
			screenRoutes.GET("/current", captureHandler.Current)
			screenRoutes.DELETE("/:id", captureHandler.Detach)
			screenRoutes.POST("/:id/events", captureHandler.Events)
			screenRoutes.POST("/:id/complete", captureHandler.Complete)
		}

		summaryRoutes := authorized.Group("/summaries")
		{
			summaryRoutes.GET("", summariesHandler.All)
			summaryRoutes.GET("/:task", summariesHandler.One)
			summaryRoutes.GET("/:task/chart", summariesHandler.Chart)
		}
	}

	return router
}
