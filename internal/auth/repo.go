package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"admincore/internal/apperr"
	"admincore/internal/models"
)

// Repository defines the persistence operations backing the token service.
type Repository interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	FindRolesByName(ctx context.Context, names []string) ([]models.Role, error)

	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	// ClaimRefreshToken atomically revokes an unrevoked, unexpired token and
	// returns it. Exactly one concurrent caller can claim a given token;
	// everyone else gets ErrAuthFailure.
	ClaimRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)
	RevokeUserRefreshTokens(ctx context.Context, userID int64) error

	CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error
	// ConsumeResetToken atomically marks an unconsumed, unexpired reset token
	// as used and returns it.
	ConsumeResetToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error)
}

// GormRepository implements Repository on gorm.
type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Persistence("find user by email", err)
	}
	return &u, nil
}

func (r *GormRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&u, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Persistence("find user by id", err)
	}
	return &u, nil
}

func (r *GormRepository) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return apperr.Persistence("create user", err)
	}
	return nil
}

func (r *GormRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if res.Error != nil {
		return apperr.Persistence("update password hash", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *GormRepository) FindRolesByName(ctx context.Context, names []string) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, apperr.Persistence("find roles", err)
	}
	return roles, nil
}

func (r *GormRepository) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return apperr.Persistence("create refresh token", err)
	}
	return nil
}

func (r *GormRepository) ClaimRefreshToken(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	// The conditional update is the rotation lock: the row flips to revoked
	// for exactly one caller, losers see zero rows affected.
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, now).
		Update("revoked", true)
	if res.Error != nil {
		return nil, apperr.Persistence("claim refresh token", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrAuthFailure
	}
	var t models.RefreshToken
	if err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		return nil, apperr.Persistence("load refresh token", err)
	}
	return &t, nil
}

func (r *GormRepository) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ? AND revoked = ?", token, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, apperr.Persistence("revoke refresh token", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) RevokeUserRefreshTokens(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	if res.Error != nil {
		return apperr.Persistence("revoke user refresh tokens", res.Error)
	}
	return nil
}

func (r *GormRepository) CreateResetToken(ctx context.Context, t *models.PasswordResetToken) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return apperr.Persistence("create reset token", err)
	}
	return nil
}

func (r *GormRepository) ConsumeResetToken(ctx context.Context, token string, now time.Time) (*models.PasswordResetToken, error) {
	res := r.db.WithContext(ctx).Model(&models.PasswordResetToken{}).
		Where("token = ? AND consumed_at IS NULL AND expires_at > ?", token, now).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, apperr.Persistence("consume reset token", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ErrAuthFailure
	}
	var t models.PasswordResetToken
	if err := r.db.WithContext(ctx).First(&t, "token = ?", token).Error; err != nil {
		return nil, apperr.Persistence("load reset token", err)
	}
	return &t, nil
}

var _ Repository = (*GormRepository)(nil)
