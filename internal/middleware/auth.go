package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Stephen-Salano/Spring-Security-example/internal/models"
	"github.com/Stephen-Salano/Spring-Security-example/internal/repo"
	"github.com/Stephen-Salano/Spring-Security-example/internal/tokens"
)

const (
	CtxUser  = "user"
	CtxRoles = "roles"

	bearerPrefix = "Bearer "
)

type JWTAuth struct {
	Codec *tokens.Codec
	Repo  *repo.GormRepo
}

func NewJWTAuth(codec *tokens.Codec, r *repo.GormRepo) *JWTAuth {
	return &JWTAuth{Codec: codec, Repo: r}
}

// Authenticate runs once per request, before route handlers. Requests
// without a bearer header pass through unauthenticated; protected routes
// reject those downstream. Every token failure collapses into one 401
// body, so the caller cannot tell expired from malformed here.
func (m *JWTAuth) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return next(c)
		}
		raw := strings.TrimPrefix(header, bearerPrefix)

		subject, err := m.Codec.ExtractSubject(raw)
		if err != nil {
			return rejectToken(c)
		}

		if _, ok := c.Get(CtxUser).(*models.User); ok {
			return next(c)
		}

		user, err := m.Repo.FindByUsername(c.Request().Context(), subject)
		if err != nil {
			return rejectToken(c)
		}

		claims, err := m.Codec.Verify(raw)
		if err != nil {
			return rejectToken(c)
		}
		if sub, err := claims.GetSubject(); err != nil || sub != user.Username {
			return rejectToken(c)
		}

		c.Set(CtxUser, user)
		c.Set(CtxRoles, user.Roles)
		return next(c)
	}
}

func rejectToken(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired or invalid"})
}

// RequireAuth guards protected routes: a request that reached them
// without an attached identity is rejected.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(CtxUser).(*models.User); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

func UserFromContext(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(CtxUser).(*models.User)
	return user, ok
}
