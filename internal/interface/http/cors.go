package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// originPolicy decides which browser origins may call the page API and open
// the live channel. An empty list allows every origin.
type originPolicy struct {
	any     bool
	first   string
	allowed map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.any = true
			continue
		}
		if p.first == "" {
			p.first = o
		}
		p.allowed[strings.ToLower(o)] = struct{}{}
	}
	if len(p.allowed) == 0 {
		p.any = true
	}
	return p
}

func (p originPolicy) permits(origin string) bool {
	if p.any || origin == "" {
		return true
	}
	_, ok := p.allowed[strings.ToLower(origin)]
	return ok
}

// headerValue is the Access-Control-Allow-Origin answer for origin.
func (p originPolicy) headerValue(origin string) string {
	switch {
	case p.any:
		return "*"
	case origin != "" && p.permits(origin):
		return origin
	default:
		return p.first
	}
}

func corsMiddleware(policy originPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := c.Writer.Header()
		headers.Set("Access-Control-Allow-Origin", policy.headerValue(c.GetHeader("Origin")))
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type")
		headers.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
