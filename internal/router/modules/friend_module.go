package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/circle-up/internal/interface/http"
)

type FriendModule struct {
	Handler *handlers.FriendHandler
	Guard   *Guard
}

func NewFriendModule(h *handlers.FriendHandler, g *Guard) *FriendModule {
	return &FriendModule{Handler: h, Guard: g}
}

func (m *FriendModule) Register(api, _ *gin.RouterGroup) {
	auth := api.Group("/friends")
	auth.Use(m.Guard.Required(), m.Guard.PerUser(120, time.Minute))
	{
		auth.GET("/candidates", m.Handler.Candidates)
		auth.POST("/add", m.Handler.Add)
		auth.POST("/visibility", m.Handler.Visibility)
	}
}
