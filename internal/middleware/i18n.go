// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language"), i18n.DefaultLanguage()))
		c.Next()
	}
}

// resolveLanguage picks the first supported language from an Accept-Language
// header such as "ko-KR,ko;q=0.9,en;q=0.8".
func resolveLanguage(header, fallback string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.Split(part, ";")[0]))
		switch {
		case tag == "ko" || strings.HasPrefix(tag, "ko-"):
			return "ko"
		case tag == "en" || strings.HasPrefix(tag, "en-"):
			return "en"
		}
	}
	return fallback
}
