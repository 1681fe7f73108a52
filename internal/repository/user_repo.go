package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
)

// UserRepository provides data access for users and the device-token
// lifecycle.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return svcErr.Map(r.db.WithContext(ctx).Create(u).Error)
}

// GetByID returns a user by id, ErrNotFound if it does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return &u, nil
}

// ListStaff returns all staff users.
func (r *UserRepository) ListStaff(ctx context.Context) ([]db.User, error) {
	return r.listByStaff(ctx, true)
}

// ListNonStaff returns all regular users.
func (r *UserRepository) ListNonStaff(ctx context.Context) ([]db.User, error) {
	return r.listByStaff(ctx, false)
}

func (r *UserRepository) listByStaff(ctx context.Context, staff bool) ([]db.User, error) {
	var users []db.User
	if err := r.db.WithContext(ctx).Where("staff = ?", staff).Find(&users).Error; err != nil {
		return nil, svcErr.Map(err)
	}
	return users, nil
}

// SetDeviceToken stores (or replaces) a user's push token.
func (r *UserRepository) SetDeviceToken(ctx context.Context, userID uint64, token string) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("device_token", token)
	if res.Error != nil {
		return svcErr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFoundf("user %d", userID)
	}
	return nil
}

// ClearDeviceTokens nulls the push tokens of the given users in one update.
// Called after a fan-out batch for tokens the push service reported as
// permanently invalid; a cleared token is never retried.
func (r *UserRepository) ClearDeviceTokens(ctx context.Context, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	return svcErr.Map(r.db.WithContext(ctx).Model(&db.User{}).
		Where("id IN ?", userIDs).
		Update("device_token", nil).Error)
}
