package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Stephen-Salano/Spring-Security-example/internal/middleware"
	"github.com/Stephen-Salano/Spring-Security-example/internal/models"
)

type UserHTTP struct{}

type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func (h *UserHTTP) Me(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, userResponse(user))
}
