package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-upload/internal/session"
	"notes-upload/internal/shared/server/respond"
	"notes-upload/internal/shared/util"
)

const (
	userIDKey = "userId"
	tokenKey  = "authToken"
)

// Auth requires a bearer token and stores it in context. The token is
// forwarded to the notes backend, which verifies it; here its user claim is
// only read so drafts can be scoped to their owner.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(tokenKey, token)
		if id, err := session.UserIDFromToken(token); err == nil {
			c.Set(userIDKey, id)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID read from the bearer token, if any.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// TokenFromContext fetches the bearer token stored by Auth.
func TokenFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(tokenKey)
	if tok, ok := val.(string); ok {
		return tok
	}
	return ""
}

// SessionFromContext builds the wizard session for the request.
func SessionFromContext(c *gin.Context) session.Bearer {
	return session.Bearer{Token: TokenFromContext(c), UserID: UserIDFromContext(c)}
}

// OwnerKey scopes stored drafts to the exact bearer token. The user claim
// is unverified here, so it only labels the key; a token re-issued by the
// backend starts with no drafts.
func OwnerKey(c *gin.Context) string {
	tok := TokenFromContext(c)
	if tok == "" {
		return ""
	}
	if id := UserIDFromContext(c); id != "" {
		return "user:" + id + ":" + util.HashUserKey(tok)
	}
	return "token:" + util.HashUserKey(tok)
}
