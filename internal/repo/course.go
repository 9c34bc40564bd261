package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/models"
)

func (r *GormRepo) CreateCourse(ctx context.Context, c *models.Course) error {
	var existing models.Course
	err := r.DB.WithContext(ctx).Where("code = ?", c.Code).First(&existing).Error
	if err == nil {
		return apperr.Wrap(apperr.ErrConflict, "course code already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) CourseByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.DB.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (r *GormRepo) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := r.DB.WithContext(ctx).Order("code").Find(&courses).Error
	return courses, err
}

func (r *GormRepo) UpdateCourse(ctx context.Context, id uint, name, description string) (*models.Course, error) {
	result := r.DB.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", id).
		Updates(map[string]any{"name": name, "description": description})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}
	return r.CourseByID(ctx, id)
}

func (r *GormRepo) DeleteCourse(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Course{}, id).Error
}

func (r *GormRepo) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Course{}).Count(&n).Error
	return n, err
}
