package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	var existing models.User
	err := r.DB.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		return apperr.Wrap(apperr.ErrConflict, "email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

type ProfileUpdate struct {
	Name        string
	Phone       string
	DateOfBirth string
	Address     string
	PictureURL  string
}

func (r *GormRepo) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) (*models.User, error) {
	values := map[string]any{
		"name":          upd.Name,
		"phone":         upd.Phone,
		"date_of_birth": upd.DateOfBirth,
		"address":       upd.Address,
		"picture_url":   upd.PictureURL,
	}
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values).Error; err != nil {
		return nil, err
	}
	return r.UserByID(ctx, id)
}

func (r *GormRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *GormRepo) SetBlocked(ctx context.Context, id uint, blocked bool) (*models.User, error) {
	result := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("blocked", blocked)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.ErrNotFound
	}
	return r.UserByID(ctx, id)
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.User{}, id).Error
}

func (r *GormRepo) ListStudents(ctx context.Context) ([]models.User, error) {
	var students []models.User
	err := r.DB.WithContext(ctx).
		Where("role = ?", models.RoleStudent).
		Order("id").
		Find(&students).Error
	return students, err
}

func (r *GormRepo) CountStudents(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleStudent).
		Count(&n).Error
	return n, err
}
