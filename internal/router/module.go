package router

import "github.com/gin-gonic/gin"

// Module registers its routes. api is mounted at /api; root carries the
// unprefixed endpoints such as /ws and /metrics.
type Module interface {
	Register(api, root *gin.RouterGroup)
}
