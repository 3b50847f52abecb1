// Package session issues and resolves the anonymous participant id that scopes all telemetry.
package session

import (
	"fmt"
	"net/http"

	"keytrace/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionKey = "session_id"
	contextKey = "session_id"
)

// Provider resolves the participant session for a request.
type Provider interface {
	// Get returns the current session id, if the client has one.
	Get(c *gin.Context) (string, bool)
	// GetOrCreate returns the current session id, issuing one first if needed.
	GetOrCreate(c *gin.Context) (string, error)
}

// CookieProvider keeps the session id in the signed gin-contrib/sessions cookie, so a client
// keeps its id across server restarts.
type CookieProvider struct {
	newID func() string
}

func NewCookieProvider() *CookieProvider {
	return &CookieProvider{newID: uuid.NewString}
}

func (p *CookieProvider) Get(c *gin.Context) (string, bool) {
	id, ok := sessions.Default(c).Get(sessionKey).(string)
	return id, ok && id != ""
}

func (p *CookieProvider) GetOrCreate(c *gin.Context) (string, error) {
	if id, ok := p.Get(c); ok {
		return id, nil
	}

	id := p.newID()
	s := sessions.Default(c)
	s.Set(sessionKey, id)
	if err := s.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Required rejects requests without a session and makes the id available to handlers via ID.
func Required(p Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := p.Get(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": models.ErrMissingSession.Error()})
			return
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// ID returns the session id stored by Required, or "" outside a Required route.
func ID(c *gin.Context) string {
	return c.GetString(contextKey)
}
