package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/circle-up/pkg/helpers"
	"github.com/oksasatya/circle-up/pkg/response"
)

// Context keys set by the middlewares in this package.
const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxRequestIDKey = "request_id"
	CtxRealIPKey    = "real_ip"
)

// UserID is the authenticated caller, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// TokenFromRequest looks for the access token in the Authorization header
// (with or without the Bearer prefix), then the access cookie. WebSocket
// upgrades may also pass it as ?token= since browsers cannot set headers there.
func TokenFromRequest(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			return strings.TrimSpace(h[7:])
		}
		return h
	}
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil && tok != "" {
		return tok
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return c.Query("token")
	}
	return ""
}

// authenticate parses the token and, when rdb is set, checks it belongs to
// the session currently stored for the user. It returns a client message
// on failure.
func authenticate(c *gin.Context, rdb *redis.Client, jwt *helpers.JWTManager) (*helpers.Claims, string) {
	token := TokenFromRequest(c)
	if token == "" {
		return nil, "missing access token"
	}
	claims, err := jwt.ParseAccessToken(token)
	if err != nil {
		return nil, "invalid access token"
	}
	if rdb != nil {
		ok, err := helpers.SessionMatches(c.Request.Context(), rdb, claims.UserID, claims.SessionID)
		if err != nil || !ok {
			return nil, "session not found"
		}
	}
	return claims, ""
}

// Auth rejects requests without a valid token and live session.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, msg := authenticate(c, rdb, jwt)
		if claims == nil {
			response.Error[any](c, http.StatusUnauthorized, msg, nil)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := authenticate(c, rdb, jwt); claims != nil {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxSessionIDKey, claims.SessionID)
		}
		c.Next()
	}
}
