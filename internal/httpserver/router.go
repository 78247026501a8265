package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub/internal/metrics"
	"github.com/taskhub/taskhub/internal/middleware"
	"github.com/taskhub/taskhub/internal/models"
)

type Deps struct {
	Auth       *AuthHTTP
	Tasks      *TaskHTTP
	Categories *CategoryHTTP
	Users      *UserHTTP
	Guard      *middleware.Auth
	Limiter    *middleware.RateLimiter
	Metrics    *metrics.Collector
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register)

	credential := auth.Group("")
	if d.Limiter != nil {
		credential.Use(d.Limiter.Middleware())
	}
	credential.POST("/login", d.Auth.Login)
	credential.POST("/refresh", d.Auth.Refresh)

	auth.POST("/logout", d.Auth.Logout, d.Guard.RequireAuth)

	api := e.Group("", d.Guard.RequireAuth)

	api.GET("/task", d.Tasks.List)
	api.GET("/task/search", d.Tasks.Search)
	api.GET("/task/:id", d.Tasks.Get)
	api.POST("/task", d.Tasks.Create)
	api.PATCH("/task/:id", d.Tasks.Update)
	api.DELETE("/task/:id", d.Tasks.Delete)

	api.GET("/category", d.Categories.List)
	api.POST("/category", d.Categories.Create)
	api.DELETE("/category/:id", d.Categories.Delete)

	api.GET("/user", d.Users.List, middleware.RequireRoles(models.RoleAdmin))
	api.GET("/user/:id", d.Users.Get, middleware.RequireRoles(models.RoleAdmin, models.RoleUser))
	api.DELETE("/user/:id", d.Users.Delete, middleware.RequireRoles(models.RoleAdmin))
}
