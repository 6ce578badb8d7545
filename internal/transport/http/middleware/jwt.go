package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"newsrag/internal/pkg/jwtutil"
	"newsrag/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthJWT verifies an HS256 bearer token and exposes its claims on the
// context. Tokens are issued by an external service.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		switch {
		case scheme == "":
			abort(c, "missing authorization header")
			return
		case !found || !strings.EqualFold(scheme, "Bearer"):
			abort(c, "invalid authorization scheme")
			return
		}

		claims, err := jwtutil.ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			abort(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

func abort(c *gin.Context, message string) {
	response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, message)
	c.Abort()
}
