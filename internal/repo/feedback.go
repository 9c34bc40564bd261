package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/models"
)

func (r *GormRepo) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

// FeedbackOwnedBy scopes the lookup to the owner, so a non-owner probing
// someone else's record sees the same not-found as a missing one.
func (r *GormRepo) FeedbackOwnedBy(ctx context.Context, id, userID uint) (*models.Feedback, error) {
	var fb models.Feedback
	err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&fb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &fb, nil
}

func (r *GormRepo) ListFeedbackByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Feedback, error) {
	var fbs []models.Feedback
	err := r.DB.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&fbs).Error
	return fbs, err
}

func (r *GormRepo) SaveFeedback(ctx context.Context, f *models.Feedback) error {
	return r.DB.WithContext(ctx).Save(f).Error
}

func (r *GormRepo) DeleteFeedbackOwnedBy(ctx context.Context, id, userID uint) error {
	result := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Feedback{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type FeedbackFilter struct {
	CourseID uint
	Rating   int
	UserID   uint
}

func (r *GormRepo) ListFeedback(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, error) {
	q := r.DB.WithContext(ctx).Preload("User").Preload("Course")
	if filter.CourseID != 0 {
		q = q.Where("course_id = ?", filter.CourseID)
	}
	if filter.Rating != 0 {
		q = q.Where("rating = ?", filter.Rating)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	var fbs []models.Feedback
	err := q.Order("created_at DESC").Find(&fbs).Error
	return fbs, err
}

func (r *GormRepo) CountFeedback(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Feedback{}).Count(&n).Error
	return n, err
}

type CourseTrend struct {
	CourseID  uint    `json:"course_id"`
	Course    string  `json:"course"`
	AvgRating float64 `json:"avg_rating"`
	Count     int64   `json:"count"`
}

func (r *GormRepo) FeedbackTrends(ctx context.Context) ([]CourseTrend, error) {
	var trends []CourseTrend
	err := r.DB.WithContext(ctx).Model(&models.Feedback{}).
		Select("feedbacks.course_id AS course_id, courses.name AS course, AVG(feedbacks.rating) AS avg_rating, COUNT(*) AS count").
		Joins("JOIN courses ON courses.id = feedbacks.course_id").
		Group("feedbacks.course_id, courses.name").
		Order("avg_rating DESC").
		Scan(&trends).Error
	return trends, err
}
