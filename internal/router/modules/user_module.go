package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/feedback-hub/internal/domain/entity"
	handlers "github.com/oksasatya/feedback-hub/internal/interface/http"
	"github.com/oksasatya/feedback-hub/internal/interface/middleware"
)

// UserModule serves /users. Reads and writes are public; promotion needs an
// administrator session and is only mounted when Auth is set.
type UserModule struct {
	Handler   *handlers.UserHandler
	WriteRate gin.HandlerFunc
	Auth      gin.HandlerFunc
}

func NewUserModule(h *handlers.UserHandler, writeRate, auth gin.HandlerFunc) *UserModule {
	return &UserModule{Handler: h, WriteRate: writeRate, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users", m.WriteRate)
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/search", m.Handler.Search)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Delete)
	}
	if m.Auth != nil {
		users.POST("/:id/promote", m.Auth, middleware.RequireRole(entity.RoleAdministrator), m.Handler.Promote)
	}
}
