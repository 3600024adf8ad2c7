package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/feedback-hub/internal/interface/http"
)

type FeedbackModule struct {
	Handler   *handlers.FeedbackHandler
	WriteRate gin.HandlerFunc
}

func NewFeedbackModule(h *handlers.FeedbackHandler, writeRate gin.HandlerFunc) *FeedbackModule {
	return &FeedbackModule{Handler: h, WriteRate: writeRate}
}

func (m *FeedbackModule) Register(rg *gin.RouterGroup) {
	fb := rg.Group("/feedbacks", m.WriteRate)
	{
		fb.GET("", m.Handler.List)
		fb.POST("", m.Handler.Create)
		fb.GET("/reviewer/:id", m.Handler.ByReviewer)
		fb.GET("/recipient/:id", m.Handler.ByRecipient)
		fb.GET("/:id", m.Handler.Get)
		fb.DELETE("/:id", m.Handler.Delete)
	}
}
