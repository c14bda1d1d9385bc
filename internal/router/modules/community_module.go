package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/circle-up/internal/interface/http"
)

// CommunityModule serves /api/communities. Listing and search are public;
// creating and adding members need a caller.
type CommunityModule struct {
	Handler *handlers.CommunityHandler
	Guard   *Guard
}

func NewCommunityModule(h *handlers.CommunityHandler, g *Guard) *CommunityModule {
	return &CommunityModule{Handler: h, Guard: g}
}

func (m *CommunityModule) Register(api, _ *gin.RouterGroup) {
	rg := api.Group("/communities")

	rg.GET("/search", m.Guard.PerIP(60, time.Minute), m.Handler.Search)
	rg.GET("/:id", m.Handler.Get)

	open := rg.Group("/")
	open.Use(m.Guard.Optional())
	{
		open.POST("/all", m.Handler.All)
		open.GET("/all", m.Handler.All)
		open.POST("/mine", m.Handler.Mine)
	}

	write := []gin.HandlerFunc{m.Guard.Required(), m.Guard.PerUser(60, time.Minute)}
	rg.POST("", append(write, m.Handler.Create)...)
	rg.POST("/:id/add-users", append(write, m.Handler.AddUsers)...)
}
