package modules

import (
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/circle-up/internal/interface/middleware"
)

// DebugModule exposes liveness plus, when enabled, expvar and Prometheus
// metrics. Private addresses skip the limiter so scrapers are never throttled.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	Enabled  bool
	Guard    *Guard
}

func NewDebugModule(g prometheus.Gatherer, enabled bool, guard *Guard) *DebugModule {
	return &DebugModule{Gatherer: g, Enabled: enabled, Guard: guard}
}

func (m *DebugModule) Register(_, root *gin.RouterGroup) {
	root.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if !m.Enabled {
		return
	}
	rl := middleware.RateLimit(m.Guard.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	root.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	if m.Gatherer != nil {
		root.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
	}
}
