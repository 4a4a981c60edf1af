package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/tasktracker/internal/models"
)

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// IncrementTokenVersion advances the stored version from expected to expected+1
// in a single conditional update. It fails with ErrStaleVersion when the stored
// value no longer equals expected, so two concurrent rotations of the same
// token cannot both succeed.
func (r *GormRepo) IncrementTokenVersion(ctx context.Context, userID string, expected int) (int, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND token_version = ?", userID, expected).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return 0, fmt.Errorf("increment token version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrStaleVersion
	}
	return expected + 1, nil
}

// RevokeAllSessions bumps the version unconditionally.
func (r *GormRepo) RevokeAllSessions(ctx context.Context, userID string) error {
	if !validID(userID) {
		return ErrNotFound
	}

	res := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return fmt.Errorf("revoke sessions: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
