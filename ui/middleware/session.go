package middleware

import (
	"log"
	"net/http"

	"github.com/gomotopia/districtr/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "districtr.session"

// SessionLookup resolves an open editor session
type SessionLookup interface {
	Get(id uuid.UUID) (*app.Session, error)
}

// LoadSession resolves the :id path param into an open session and stores it
// on the context. Unknown or malformed ids end the request with 404.
func LoadSession(sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown session", "code": "NOT_FOUND"})
			return
		}

		session, err := sessions.Get(id)
		if err != nil {
			log.Printf("[LoadSession] Session %s not found", id)
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// Session returns the session stored by LoadSession
func Session(c *gin.Context) *app.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(*app.Session); ok {
			return session
		}
	}
	return nil
}
