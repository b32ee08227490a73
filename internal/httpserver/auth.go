package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Stephen-Salano/Spring-Security-example/internal/logging"
	"github.com/Stephen-Salano/Spring-Security-example/internal/repo"
	"github.com/Stephen-Salano/Spring-Security-example/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) Authenticate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_authenticate")

	var req struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("authenticate_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username or email and password are required")
	}

	res, err := h.Svc.Authenticate(ctx, req.UsernameOrEmail, req.Password)
	if err != nil {
		// not-found and wrong-password are indistinguishable on the wire
		if errors.Is(err, repo.ErrUserNotFound) || errors.Is(err, service.ErrBadCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	raw, ok := bearerToken(c)
	if !ok {
		l.Warn("refresh_error", "status", 400, "reason", "missing bearer token")
		return echo.NewHTTPError(http.StatusBadRequest, "missing or malformed Authorization header")
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrTokenNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, repo.ErrTokenNotFound.Error())
		case errors.Is(err, repo.ErrTokenExpired):
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token is expired, please login again")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	raw, ok := bearerToken(c)
	if !ok {
		l.Warn("logout_error", "status", 400, "reason", "missing bearer token")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid token"})
	}

	username, err := h.Svc.Codec.ExtractSubject(raw)
	if err != nil {
		l.Warn("logout_error", "status", 400, "reason", "invalid token")
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid token"})
	}

	if err := h.Svc.Logout(ctx, username); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}
