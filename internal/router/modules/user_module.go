package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/circle-up/internal/interface/http"
)

// UserModule wires accounts, the user directory and goals.
// Public: POST /api/signup, POST /api/login
// Optional auth: GET /api/users, POST /api/users/single
// Protected: POST /api/logout, POST /api/goals/{add,delete,update}
type UserModule struct {
	Handler *handlers.UserHandler
	Guard   *Guard
}

func NewUserModule(h *handlers.UserHandler, g *Guard) *UserModule {
	return &UserModule{Handler: h, Guard: g}
}

func (m *UserModule) Register(api, _ *gin.RouterGroup) {
	api.POST("/signup", m.Guard.PerIPAndPath(10, time.Minute), m.Handler.Signup)
	api.POST("/login", m.Guard.PerIPAndPath(10, time.Minute), m.Handler.Login)

	open := api.Group("/")
	open.Use(m.Guard.Optional(), m.Guard.PerIP(300, time.Minute))
	{
		open.GET("/users", m.Handler.List)
		open.POST("/users/single", m.Handler.Single)
	}

	auth := api.Group("/")
	auth.Use(m.Guard.Required(), m.Guard.PerUser(120, time.Minute))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/goals/add", m.Handler.AddGoal)
		auth.POST("/goals/delete", m.Handler.DeleteGoal)
		auth.POST("/goals/update", m.Handler.UpdateGoal)
	}
}
