package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ben-burie/Stryde/internal/infra/config"
	"github.com/ben-burie/Stryde/pkg/metrics"
)

const (
	apiPrefix = "/api/v1"
	livePath  = apiPrefix + "/live"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, m *metrics.Manager) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger, m),
		corsMiddleware(handler.origins),
		errorHandlingMiddleware(handler.logger),
	)

	router.GET("/", renderPage(homePage()))
	router.GET("/login", renderPage(loginPage()))
	router.GET("/static/live.js", func(c *gin.Context) {
		c.FileFromFS("live.js", staticFS())
	})
	router.GET("/healthz", handler.Healthz)
	if m != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group(apiPrefix)
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger))
	{
		api.GET("/live", handler.Live)
		api.POST("/pages/:id/events", handler.Event)
		api.POST("/pages/:id/upload", handler.Upload)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
