package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ben-burie/Stryde/internal/infra/config"
	"github.com/ben-burie/Stryde/pkg/metrics"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

// errorHandlingMiddleware renders the last recorded error unless a handler already replied.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		attrs := []any{"code", httpErr.Code, "status", httpErr.Status, "route", c.FullPath()}
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, "page", id)
		}
		if httpErr.Err != nil {
			attrs = append(attrs, "error", httpErr.Err)
		}
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}

		c.JSON(httpErr.Status, errorResponse{Error: errorBody{Code: httpErr.Code, Message: message}})
	}
}

func requestLogger(logger *slog.Logger, m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		m.Request(c.Request.Method, status)
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// rateLimitMiddleware throttles the page API per client address with a token bucket.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(cfg)
	return func(c *gin.Context) {
		client := c.ClientIP()
		wait, ok := limiter.take(client)
		if ok {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "client", client, "route", c.FullPath(), "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

type clientLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	perSec  float64
	burst   float64
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newClientLimiter(cfg config.RateLimitConfig) *clientLimiter {
	burst := max(cfg.Burst, 1)
	return &clientLimiter{
		buckets: make(map[string]*bucket),
		perSec:  float64(cfg.RequestsPerMinute) / 60,
		burst:   float64(burst),
		idle:    5 * time.Minute,
		now:     time.Now,
	}
}

// take spends one token for client. When none is left it reports how long
// until the next token is available.
func (l *clientLimiter) take(client string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictLocked(now)

	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[client] = b
	} else if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.perSec)
		b.seen = now
	}

	if b.tokens < 1 {
		missing := (1 - b.tokens) / l.perSec
		return time.Duration(missing * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *clientLimiter) evictLocked(now time.Time) {
	for client, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, client)
		}
	}
}
