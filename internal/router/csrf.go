package router

import (
	"crypto/subtle"
	"net/http"

	"keytrace/internal/handlers"
	"keytrace/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFToken makes sure every session carries a CSRF token and exposes it to handlers.
func CSRFToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, _ := session.Get(csrfTokenSessionKey).(string)
		if token == "" {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate CSRF token"})
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
				return
			}
		}

		c.Set(handlers.CSRFContextKey, token)
		c.Next()
	}
}

// CSRFRequired rejects unsafe requests whose X-CSRF-Token header does not match the session.
func CSRFRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		realToken, _ := sessions.Default(c).Get(csrfTokenSessionKey).(string)
		submitted := c.GetHeader(csrfTokenHeaderKey)
		if realToken == "" || submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(realToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
			return
		}
		c.Next()
	}
}
