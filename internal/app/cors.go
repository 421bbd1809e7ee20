package app

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
)

// corsMiddleware allows every origin in development. Otherwise only origins
// whose host matches one of cfg.AllowedOrigins are accepted.
func corsMiddleware(cfg *config.AppConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	patterns := cfg.AllowedOrigins
	if len(patterns) == 0 || cfg.IsDev() {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOriginFunc = func(origin string) bool { return originAllowed(patterns, origin) }
	}
	return cors.New(c)
}

func originAllowed(patterns []string, origin string) bool {
	host := extractOriginHost(origin)
	for _, pattern := range patterns {
		if matchOriginPattern(pattern, host) {
			return true
		}
	}
	return false
}

// extractOriginHost returns the lowercased "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Host)
}

// matchOriginPattern supports exact hosts, "*.example.com" and "localhost:*".
func matchOriginPattern(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	switch {
	case pattern == "*" || pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
