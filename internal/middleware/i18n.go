// internal/middleware/i18n.go
package middleware

import (
	"github.com/farmlink/discovery/internal/i18n"

	"github.com/gin-gonic/gin"
)

// I18nMiddleware stores the negotiated locale under "lang".
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = "en"
	}

	return func(c *gin.Context) {
		lang := defaultLang
		if header := c.GetHeader("Accept-Language"); header != "" {
			lang = i18n.Match(header, defaultLang)
		}

		c.Set("lang", lang)
		c.Next()
	}
}
