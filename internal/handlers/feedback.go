package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/logging"
	authmw "github.com/coursehub/feedback-service/internal/middleware/auth"
	"github.com/coursehub/feedback-service/internal/models"
	"github.com/coursehub/feedback-service/internal/mykafka"
	"github.com/coursehub/feedback-service/internal/repo"
	"github.com/coursehub/feedback-service/internal/validate"
)

const minePageSize = 5

type FeedbackHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (h *FeedbackHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	ident, _ := authmw.IdentityFrom(c)

	var req struct {
		CourseID uint   `json:"courseId"`
		Rating   int    `json:"rating"`
		Message  string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !validate.Rating(req.Rating) {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	if _, err := h.Repo.CourseByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return httpError(err)
	}

	fb := &models.Feedback{
		UserID:   ident.ID,
		CourseID: req.CourseID,
		Rating:   req.Rating,
		Message:  req.Message,
	}
	if err := h.Repo.CreateFeedback(ctx, fb); err != nil {
		return httpError(err)
	}

	h.publish(ctx, map[string]any{
		"type":        "feedback_created",
		"feedback_id": fb.ID,
		"user_id":     ident.ID,
		"course_id":   fb.CourseID,
		"rating":      fb.Rating,
	})
	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	ident, _ := authmw.IdentityFrom(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * minePageSize

	fbs, err := h.Repo.ListFeedbackByUser(ctx, ident.ID, offset, minePageSize)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fbs)
}

func (h *FeedbackHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	ident, _ := authmw.IdentityFrom(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	// Ownership is part of the lookup; someone else's feedback reads as 404.
	fb, err := h.Repo.FeedbackOwnedBy(ctx, id, ident.ID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
		}
		return httpError(err)
	}

	var req struct {
		Rating  *int    `json:"rating"`
		Message *string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Rating != nil {
		if !validate.Rating(*req.Rating) {
			return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		}
		fb.Rating = *req.Rating
	}
	if req.Message != nil {
		fb.Message = *req.Message
	}

	if err := h.Repo.SaveFeedback(ctx, fb); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ident, _ := authmw.IdentityFrom(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteFeedbackOwnedBy(ctx, id, ident.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "feedback deleted"})
}

// ListAll is the admin view with course/rating/student filters.
func (h *FeedbackHandler) ListAll(c echo.Context) error {
	ctx := c.Request().Context()

	var filter repo.FeedbackFilter
	if v, err := strconv.ParseUint(c.QueryParam("course"), 10, 64); err == nil {
		filter.CourseID = uint(v)
	}
	if v, err := strconv.Atoi(c.QueryParam("rating")); err == nil {
		filter.Rating = v
	}
	if v, err := strconv.ParseUint(c.QueryParam("student"), 10, 64); err == nil {
		filter.UserID = uint(v)
	}

	fbs, err := h.Repo.ListFeedback(ctx, filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fbs)
}

func (h *FeedbackHandler) publish(ctx context.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	key := ""
	if id, ok := event["user_id"].(uint); ok {
		key = strconv.FormatUint(uint64(id), 10)
	}
	if err := h.Producer.PublishEvent(pubCtx, mykafka.TopicFeedbackEvents, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.TopicFeedbackEvents, "error", err)
	}
}
