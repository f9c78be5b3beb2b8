package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/tool"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) Create(ctx context.Context, item *models.ContentItem) error {
	if item.ID == "" {
		item.ID = tool.GenerateUUIDV7()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return apperr.Persistence("save content", err)
	}
	return nil
}

// ListByOwner returns the owner's items, newest first.
func (r *ContentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ContentItem, error) {
	rows := make([]*models.ContentItem, 0)
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("date_created DESC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Persistence("list content", err)
	}
	return rows, nil
}

// DeleteByID removes the item. Deleting a missing or malformed id succeeds.
func (r *ContentRepository) DeleteByID(ctx context.Context, id string) error {
	if !isRowID(id) {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ContentItem{}).Error; err != nil {
		return apperr.Persistence("delete content", err)
	}
	return nil
}
