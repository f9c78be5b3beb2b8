package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken email yields a conflict error.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("User already exists")
		}
		return apperr.Persistence("create user", err)
	}
	return nil
}

// FindByEmail returns nil, nil when no user has the email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var rows []*models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("find user by email", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindByID returns nil, nil when the user does not exist or id is malformed.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !isRowID(id) {
		return nil, nil
	}
	var rows []*models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("find user", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpdateProfile overwrites username and email. Updating an unknown or
// malformed id is not an error.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, username, email string) error {
	if !isRowID(id) {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"username":   username,
			"email":      email,
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("email %s is already in use", email)
		}
		return apperr.Persistence("update user", err)
	}
	return nil
}
