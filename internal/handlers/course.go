package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/es"
	"github.com/coursehub/feedback-service/internal/logging"
	"github.com/coursehub/feedback-service/internal/models"
	"github.com/coursehub/feedback-service/internal/repo"
)

type CourseHandler struct {
	Repo *repo.GormRepo
	ES   *elasticsearch.Client
}

func (h *CourseHandler) ListCourses(c echo.Context) error {
	courses, err := h.Repo.ListCourses(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Code == "" || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code and name are required")
	}

	course := &models.Course{Code: req.Code, Name: req.Name, Description: req.Description}
	if err := h.Repo.CreateCourse(ctx, course); err != nil {
		return httpError(err)
	}

	h.index(c, course)
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	course, err := h.Repo.UpdateCourse(ctx, id, req.Name, req.Description)
	if err != nil {
		return httpError(err)
	}

	h.index(c, course)
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteCourse(ctx, id); err != nil {
		return httpError(err)
	}

	if h.ES != nil {
		if err := es.DeleteCourse(ctx, h.ES, id); err != nil {
			logging.FromContext(ctx).Error("es_delete_error", "course_id", id, "error", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "course deleted"})
}

// index is best-effort: search lags behind the database rather than
// failing the write.
func (h *CourseHandler) index(c echo.Context, course *models.Course) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := es.IndexCourse(ctx, h.ES, course); err != nil {
		logging.FromContext(ctx).Error("es_index_error", "course_id", course.ID, "error", err)
	}
}
