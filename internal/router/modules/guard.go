package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/circle-up/internal/interface/middleware"
	"github.com/oksasatya/circle-up/pkg/helpers"
)

// Guard bundles the auth and rate-limit middleware every module uses.
// A nil Redis turns the limiters into pass-throughs.
type Guard struct {
	Redis *redis.Client
	JWT   *helpers.JWTManager
}

func NewGuard(rdb *redis.Client, jwt *helpers.JWTManager) *Guard {
	return &Guard{Redis: rdb, JWT: jwt}
}

func (g *Guard) Required() gin.HandlerFunc { return middleware.Auth(g.Redis, g.JWT) }

func (g *Guard) Optional() gin.HandlerFunc { return middleware.OptionalAuth(g.Redis, g.JWT) }

func (g *Guard) PerIP(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.Redis, max, window, middleware.KeyByIP(), nil)
}

func (g *Guard) PerIPAndPath(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.Redis, max, window, middleware.KeyByIPAndPath(), nil)
}

func (g *Guard) PerUser(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(g.Redis, max, window, middleware.KeyByUserID(), nil)
}
