// internal/middleware/body_limit.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/clubhub/internal/i18n"
	"github.com/javajoker/clubhub/internal/utils"
)

// MaxImageRequestBytes bounds request bodies that carry a base64 image: the
// encoded 4 MiB image limit plus room for the other JSON fields.
const MaxImageRequestBytes = 6 * 1024 * 1024

// BodyLimit caps the request body at n bytes. A declared length over the cap
// is rejected up front; otherwise reads past it fail with *http.MaxBytesError.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			lang := utils.GetLangFromContext(c)
			utils.PayloadTooLargeResponse(c, i18n.T(lang, i18n.KeyAvatarTooLarge))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
