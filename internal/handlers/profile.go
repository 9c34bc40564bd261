package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/hash"
	"github.com/coursehub/feedback-service/internal/logging"
	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/validate"
)

type ProfileHandler struct {
	Repo *repo.GormRepo
}

func (h *ProfileHandler) Get(c echo.Context) error {
	ident, _ := authmw.IdentityFrom(c)

	user, err := h.Repo.UserByID(c.Request().Context(), ident.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ident, _ := authmw.IdentityFrom(c)

	var req struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		DateOfBirth string `json:"date_of_birth"`
		Address     string `json:"address"`
		PictureURL  string `json:"picture_url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name != "" && !validate.Name(req.Name) {
		return echo.NewHTTPError(http.StatusBadRequest, "name must be between 2 and 100 characters")
	}
	if req.Name == "" {
		req.Name = ident.Name
	}

	user, err := h.Repo.UpdateProfile(ctx, ident.ID, repo.ProfileUpdate{
		Name:        req.Name,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		PictureURL:  req.PictureURL,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile_password")
	ident, _ := authmw.IdentityFrom(c)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !validate.Password(req.NewPassword) {
		return echo.NewHTTPError(http.StatusBadRequest,
			"password must be at least 8 characters long, include a number and a special character")
	}

	user, err := h.Repo.UserByID(ctx, ident.ID)
	if err != nil {
		return httpError(err)
	}
	if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "current password incorrect")
	}

	newHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		l.Error("password_hash_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	if err := h.Repo.UpdatePassword(ctx, ident.ID, newHash); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}
