package handlers

import (
	"net/http"

	"keytrace/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CSRFContextKey is where the CSRF middleware leaves the session's token.
const CSRFContextKey = "csrf_token"

type SessionHandler struct {
	log      *zap.Logger
	provider session.Provider
}

func NewSessionHandler(log *zap.Logger, provider session.Provider) *SessionHandler {
	return &SessionHandler{log: log, provider: provider}
}

// Issue returns the caller's session id, creating one on first contact, together with the
// CSRF token the client must echo on later writes.
func (h *SessionHandler) Issue(c *gin.Context) {
	id, err := h.provider.GetOrCreate(c)
	if err != nil {
		h.log.Error("Failed to issue session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": id,
		"csrfToken": c.GetString(CSRFContextKey),
	})
}
