package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	allowHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
)

// New builds a CORS middleware from the configured origin allow-list. An
// empty list allows every origin.
func New(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[normalize(o)] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case origin == "" && len(allowed) == 0:
			header.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && permitted(allowed, origin):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		}

		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func permitted(allowed map[string]struct{}, origin string) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[normalize(origin)]
	return ok
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(origin, "/"))
}
