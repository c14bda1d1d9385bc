package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/circle-up/internal/interface/http"
)

type MessageModule struct {
	Handler *handlers.MessageHandler
	Guard   *Guard
}

func NewMessageModule(h *handlers.MessageHandler, g *Guard) *MessageModule {
	return &MessageModule{Handler: h, Guard: g}
}

func (m *MessageModule) Register(api, _ *gin.RouterGroup) {
	api.GET("/community-messages/:communityId", m.Guard.PerIP(300, time.Minute), m.Handler.CommunityHistory)
	api.POST("/messages/:otherUserId", m.Guard.Required(), m.Guard.PerUser(300, time.Minute), m.Handler.DirectHistory)
}
