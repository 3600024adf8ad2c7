package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/feedback-hub/internal/container"
	handlers "github.com/oksasatya/feedback-hub/internal/interface/http"
	"github.com/oksasatya/feedback-hub/internal/interface/middleware"
	"github.com/oksasatya/feedback-hub/internal/router/modules"
)

// InitModules builds handlers from c and adds their modules to r.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	writeRate := middleware.RateLimit(c.Redis, cfg.RateLimitPerMinute, time.Minute, middleware.KeyByIP(), middleware.AllowReads(), c.Logger)

	var auth gin.HandlerFunc
	if c.AuthService != nil {
		auth = middleware.Auth(c.JWT, c.AuthService)
		r.Add(modules.NewAuthModule(
			handlers.NewAuthHandler(c.AuthService, c.Logger, cfg.CookieDomain, cfg.CookieSecure),
			auth, c.Redis, c.Logger,
		))
	} else {
		c.Logger.Warn("auth routes disabled: no redis client")
	}

	r.Add(modules.NewUserModule(handlers.NewUserHandler(c.UserService, c.Logger), writeRate, auth))
	r.Add(modules.NewFeedbackModule(handlers.NewFeedbackHandler(c.FeedbackService, c.Logger), writeRate))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis, c.Logger))
	}
}
