package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Stephen-Salano/Spring-Security-example/internal/models"
)

// IssueRefreshToken mints a refresh token for the user and stores it,
// replacing any token the user already holds. Delete and insert run in
// one transaction so concurrent logins cannot leave two live tokens, or
// none.
func (r *GormRepo) IssueRefreshToken(ctx context.Context, user *models.User) (*models.RefreshToken, error) {
	raw, err := r.Codec.Issue(user.Username, nil, r.RefreshTTL)
	if err != nil {
		return nil, err
	}

	refresh := models.RefreshToken{
		Token:     raw,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(r.RefreshTTL),
	}

	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&refresh).Error
	})
	if err != nil {
		return nil, err
	}
	return &refresh, nil
}

func (r *GormRepo) FindRefreshByToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	var refresh models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", raw).First(&refresh).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &refresh, nil
}

// VerifyNotExpired revokes the token as a side effect when it has lapsed,
// so an expired refresh token can never be looked up again.
func (r *GormRepo) VerifyNotExpired(ctx context.Context, refresh *models.RefreshToken) error {
	if refresh.ExpiresAt.After(time.Now()) {
		return nil
	}
	if err := r.DB.WithContext(ctx).Delete(refresh).Error; err != nil {
		return err
	}
	return ErrTokenExpired
}

// RevokeAll is a no-op when the user holds no token.
func (r *GormRepo) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}
