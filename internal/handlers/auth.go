package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/logging"
	"github.com/coursehub/feedback-service/internal/models"
	"github.com/coursehub/feedback-service/internal/service"
)

// RefreshCookiePath scopes the refresh cookie to the one endpoint that
// needs it.
const RefreshCookiePath = "/api/auth/refresh"

type AuthHandler struct {
	Svc          *service.AuthService
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

type publicUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toPublicUser(u *models.User) publicUser {
	return publicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (h *AuthHandler) refreshCookie(value string, exp time.Time) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     RefreshCookiePath,
		Domain:   h.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: sameSite,
	}
}

func (h *AuthHandler) clientInfo(c echo.Context) service.ClientInfo {
	return service.ClientInfo{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Svc.Signup(ctx, req.Name, req.Email, req.Password, h.clientInfo(c))
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(h.refreshCookie(pair.RefreshToken, pair.RefreshExp))
	return c.JSON(http.StatusCreated, echo.Map{
		"user":        toPublicUser(pair.User),
		"accessToken": pair.AccessToken,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password, h.clientInfo(c))
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(h.refreshCookie(pair.RefreshToken, pair.RefreshExp))
	return c.JSON(http.StatusOK, echo.Map{
		"user":        toPublicUser(pair.User),
		"accessToken": pair.AccessToken,
	})
}

// tokenFromRequest reads the refresh token from the cookie, falling back
// to the request body for clients that cannot send cookies.
func (h *AuthHandler) tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(h.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	rawToken := h.tokenFromRequest(c)
	if rawToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	accessToken, err := h.Svc.Refresh(ctx, rawToken)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"accessToken": accessToken})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if rawToken := h.tokenFromRequest(c); rawToken != "" {
		if err := h.Svc.Logout(ctx, rawToken); err != nil {
			l.Error("logout_failed", "error", err)
			return httpError(err)
		}
	}

	expired := h.refreshCookie("", time.Now().Add(-time.Hour))
	expired.MaxAge = -1
	c.SetCookie(expired)

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
