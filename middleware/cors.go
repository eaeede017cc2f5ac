package middleware

import (
	"net/http"
	"strings"
	"time"

	"road-risk-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// The API only reads options, history and the grid, and posts estimates and
// credentials.
var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Authorization"}
)

// SetupCORS allows every origin without credentials for "*", or the listed
// origins with credentials so the browser can send the bearer token.
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	origins := splitOrigins(cfg.AllowedOrigins)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
