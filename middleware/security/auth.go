package security

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PPCtxSessionKey is the gin context key holding the caller's session id.
const PPCtxSessionKey = "session"

type Options struct {
	// CookieName carries the session id issued on registration.
	CookieName string
	// Exists reports whether the id names a live session.
	Exists func(id string) bool
}

// Middleware admits requests whose session cookie names a live session and
// answers 401 with an empty body otherwise.
func Middleware(opts Options) gin.HandlerFunc {
	if opts.CookieName == "" {
		opts.CookieName = "user"
	}
	return func(c *gin.Context) {
		id, err := c.Cookie(opts.CookieName)
		if err != nil || id == "" || opts.Exists == nil || !opts.Exists(id) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(PPCtxSessionKey, id)
		c.Next()
	}
}

// SessionID returns the id stored by Middleware.
func SessionID(c *gin.Context) string {
	return c.GetString(PPCtxSessionKey)
}
