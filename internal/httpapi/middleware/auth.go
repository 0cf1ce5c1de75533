package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gopherchat/gopherchat/internal/auth"
	"github.com/gopherchat/gopherchat/internal/common"
	"github.com/gopherchat/gopherchat/internal/store/redisstore"
)

const identityKey = "auth_identity"

// SessionIdentity resolves the session cookie into an auth.Identity on the
// request context when the token is valid and not revoked. It never aborts;
// pages rendered for anonymous visitors run behind it too.
func SessionIdentity(secret string, revoked *redisstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.SessionCookie)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := auth.ParseSession(secret, token)
		if err != nil {
			c.Next()
			return
		}

		if revoked != nil {
			gone, err := revoked.SessionRevoked(c.Request.Context(), sess.TokenID)
			if err != nil {
				// fail open: a down denylist must not lock everyone out
				slog.Warn("revocation check failed", "error", err)
			} else if gone {
				c.Next()
				return
			}
		}

		c.Set(identityKey, sess.Identity)
		c.Next()
	}
}

// AuthRequired gates protected endpoints on a resolved identity.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Identity(c); !ok {
			common.Error(c, http.StatusUnauthorized, "not logged in")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Identity returns the authenticated principal, if any.
func Identity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
