package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/coursehub/feedback-service/internal/apperr"
	"github.com/coursehub/feedback-service/internal/models"
)

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) RefreshTokenByHash(ctx context.Context, userID uint, tokenHash string) (*models.RefreshToken, error) {
	var stored models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, tokenHash).
		First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &stored, nil
}

// DeleteRefreshTokensByHash removes every record matching the hash. Logout
// relies on this being idempotent.
func (r *GormRepo) DeleteRefreshTokensByHash(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshToken(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, id).Error
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
