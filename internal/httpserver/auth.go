package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasktracker/internal/logging"
	authmw "github.com/Skotchmaster/tasktracker/internal/middleware/auth"
	"github.com/Skotchmaster/tasktracker/internal/models"
	"github.com/Skotchmaster/tasktracker/internal/service"
	"github.com/Skotchmaster/tasktracker/internal/tokens"
	"github.com/Skotchmaster/tasktracker/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
	// Marks the refresh cookie Secure. On in production.
	SecureCookie bool
}

type sessionResponse struct {
	User        models.PublicUser `json:"user"`
	AccessToken string            `json:"accessToken"`
}

func (h *AuthHTTP) writeSession(c echo.Context, code int, s *service.Session) error {
	c.SetCookie(tokens.RefreshCookie(s.RefreshToken, h.SecureCookie))
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.JSON(code, sessionResponse{User: s.User, AccessToken: s.AccessToken})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	req, err := bindAndValidate[transport.RegisterRequest](c)
	if err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return err
	}

	sess, err := h.Svc.Register(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Email already registered")
		}
		return err
	}

	return h.writeSession(c, http.StatusCreated, sess)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	req, err := bindAndValidate[transport.LoginRequest](c)
	if err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return err
	}

	sess, err := h.Svc.Login(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	return h.writeSession(c, http.StatusOK, sess)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var raw string
	if ck, err := c.Cookie(tokens.RefreshCookieName); err == nil {
		raw = ck.Value
	}

	sess, err := h.Svc.Refresh(ctx, raw)
	switch {
	case errors.Is(err, service.ErrNoRefreshToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "No refresh token")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		c.SetCookie(tokens.ClearRefreshCookie(h.SecureCookie))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	case err != nil:
		return err
	}

	return h.writeSession(c, http.StatusOK, sess)
}

// Logout only drops the cookie. It succeeds with or without a session.
func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.ClearRefreshCookie(h.SecureCookie))
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	id, ok := authmw.FromEcho(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	if err := h.Svc.LogoutAll(c.Request().Context(), id.ID); err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return err
	}

	c.SetCookie(tokens.ClearRefreshCookie(h.SecureCookie))
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	id, ok := authmw.FromEcho(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	user, err := h.Svc.Me(c.Request().Context(), id.ID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}
