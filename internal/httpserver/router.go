package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Stephen-Salano/Spring-Security-example/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	Auth        *middleware.JWTAuth
	Logger      *slog.Logger
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(d.Auth.Authenticate)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/api/v1/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/authenticate", d.AuthHandler.Authenticate)
	auth.POST("/refresh-token", d.AuthHandler.RefreshToken)
	auth.POST("/logout", d.AuthHandler.LogOut)

	users := e.Group("/api/v1/users", middleware.RequireAuth)
	users.GET("/me", d.UserHandler.Me)
}
