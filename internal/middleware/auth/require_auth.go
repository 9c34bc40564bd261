package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/tokens"
)

// Identity is what downstream handlers see after the middleware ran.
type Identity struct {
	ID    uint
	Role  string
	Email string
	Name  string
}

const identityKey = "identity"

type Middleware struct {
	Tokens *tokens.Service
	Repo   *repo.GormRepo
}

func New(t *tokens.Service, r *repo.GormRepo) *Middleware {
	return &Middleware{Tokens: t, Repo: r}
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid Authorization header")
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := m.Tokens.ParseAccess(tokenStr)
		if err != nil {
			// Clients refresh on this exact message.
			if errors.Is(err, tokens.ErrExpired) {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token expired")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		user, err := m.Repo.UserByID(c.Request().Context(), userID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		if user.Blocked {
			return echo.NewHTTPError(http.StatusForbidden, "account is blocked")
		}

		c.Set(identityKey, Identity{
			ID:    user.ID,
			Role:  user.Role,
			Email: user.Email,
			Name:  user.Name,
		})
		return next(c)
	}
}

// RequireRole gates a route group to the given roles. It assumes
// RequireAuth already ran.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, role := range roles {
				if ident.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	ident, ok := c.Get(identityKey).(Identity)
	return ident, ok
}
