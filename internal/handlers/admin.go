package handlers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/logging"
	"github.com/coursehub/feedback-service/internal/mykafka"
	"github.com/coursehub/feedback-service/internal/repo"
)

type AdminHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (h *AdminHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	totalFeedback, err := h.Repo.CountFeedback(ctx)
	if err != nil {
		return httpError(err)
	}
	totalStudents, err := h.Repo.CountStudents(ctx)
	if err != nil {
		return httpError(err)
	}
	totalCourses, err := h.Repo.CountCourses(ctx)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"totalFeedback": totalFeedback,
		"totalStudents": totalStudents,
		"totalCourses":  totalCourses,
	})
}

func (h *AdminHandler) ListStudents(c echo.Context) error {
	students, err := h.Repo.ListStudents(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, students)
}

func (h *AdminHandler) BlockStudent(c echo.Context) error {
	return h.setBlocked(c, true)
}

func (h *AdminHandler) UnblockStudent(c echo.Context) error {
	return h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c echo.Context, blocked bool) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.Repo.SetBlocked(ctx, id, blocked)
	if err != nil {
		return httpError(err)
	}

	eventType := "user_unblocked"
	if blocked {
		eventType = "user_blocked"
	}
	h.publish(ctx, user.ID, map[string]any{
		"type":    eventType,
		"user_id": user.ID,
		"email":   user.Email,
	})
	return c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) DeleteStudent(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Repo.DeleteUser(ctx, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

func (h *AdminHandler) FeedbackTrends(c echo.Context) error {
	trends, err := h.Repo.FeedbackTrends(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, trends)
}

// ExportFeedback streams every feedback row as a CSV attachment.
func (h *AdminHandler) ExportFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	fbs, err := h.Repo.ListFeedback(ctx, repo.FeedbackFilter{})
	if err != nil {
		return httpError(err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="feedbacks.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	if err := w.Write([]string{"student_name", "student_email", "course_name", "course_code", "rating", "message", "created_at"}); err != nil {
		return err
	}
	for _, fb := range fbs {
		var name, email, courseName, courseCode string
		if fb.User != nil {
			name, email = fb.User.Name, fb.User.Email
		}
		if fb.Course != nil {
			courseName, courseCode = fb.Course.Name, fb.Course.Code
		}
		record := []string{
			name,
			email,
			courseName,
			courseCode,
			strconv.Itoa(fb.Rating),
			fb.Message,
			fb.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (h *AdminHandler) publish(ctx context.Context, userID uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(pubCtx, mykafka.TopicUserEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", mykafka.TopicUserEvents, "error", err)
	}
}
