package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/circle-up/internal/interface/realtime"
)

// RealtimeModule mounts the WebSocket endpoint at /ws, outside /api.
type RealtimeModule struct {
	Handler *realtime.Handler
	Guard   *Guard
}

func NewRealtimeModule(h *realtime.Handler, g *Guard) *RealtimeModule {
	return &RealtimeModule{Handler: h, Guard: g}
}

func (m *RealtimeModule) Register(_, root *gin.RouterGroup) {
	root.GET("/ws", m.Guard.PerIP(30, time.Minute), m.Guard.Required(), m.Handler.ServeWS)
}
