package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/metrics"
	authmw "github.com/Skotchmaster/tasktracker/internal/middleware/auth"
	"github.com/Skotchmaster/tasktracker/internal/middleware/csrf"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	ProjectHandler *ProjectHTTP
	Auth           *authmw.Bearer
	// Browser origins besides the server itself that may use the refresh
	// cookie. Mirrors the CORS allow list.
	AllowedOrigins []string
	// Ready reports whether backing services (the database) respond.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewRequestValidator()

	e.GET("/health", func(c echo.Context) error { return c.JSON(http.StatusOK, echo.Map{"status": "ok"}) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "Not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// The refresh cookie is scoped to /auth/refresh, so only that route reads it.
	cookieGuard := csrf.Middleware(csrf.Config{AllowedOrigins: d.AllowedOrigins})

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh, cookieGuard)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)
	auth.POST("/logout-all", d.AuthHandler.LogoutAll, d.Auth.RequireAuth)

	projects := e.Group("/projects")
	projects.Use(d.Auth.RequireAuth)

	projects.GET("", d.ProjectHandler.ListProjects)
	projects.POST("", d.ProjectHandler.CreateProject)
	projects.GET("/:id", d.ProjectHandler.GetProject)
	projects.PATCH("/:id", d.ProjectHandler.UpdateProject)
	projects.DELETE("/:id", d.ProjectHandler.DeleteProject)

	projects.GET("/:id/tasks", d.ProjectHandler.ListTasks)
	projects.POST("/:id/tasks", d.ProjectHandler.CreateTask)
	projects.PATCH("/tasks/:id", d.ProjectHandler.UpdateTask)
	projects.DELETE("/tasks/:id", d.ProjectHandler.DeleteTask)
}
