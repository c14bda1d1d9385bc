package router

import (
	"github.com/oksasatya/circle-up/internal/container"
	handlers "github.com/oksasatya/circle-up/internal/interface/http"
	"github.com/oksasatya/circle-up/internal/interface/realtime"
	"github.com/oksasatya/circle-up/internal/router/modules"
)

// InitModules builds the handlers from c and adds every feature module to r.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	guard := modules.NewGuard(c.Redis, c.JWT)

	users := handlers.NewUserHandler(c.Users, c.Logger, cfg.CookieDomain, cfg.CookieSecure)
	friends := handlers.NewFriendHandler(c.Friends)
	communities := handlers.NewCommunityHandler(c.Communities)
	messages := handlers.NewMessageHandler(c.Messages, c.Communities)
	ws := realtime.NewHandler(c.Hub, c.Messages, c.Communities, cfg.TypingTimeout, cfg.WSSendBuffer, cfg.CORSOrigins(), c.Metrics, c.Logger)

	r.Add(
		modules.NewUserModule(users, guard),
		modules.NewFriendModule(friends, guard),
		modules.NewCommunityModule(communities, guard),
		modules.NewMessageModule(messages, guard),
		modules.NewRealtimeModule(ws, guard),
		modules.NewDebugModule(c.Registry, cfg.DebugMetricsEnabled, guard),
	)
}
