package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/genstudio/pkg/types"
)

// ContentItem is the metadata row of a generated or saved artifact.
type ContentItem struct {
	ID          string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	OwnerID     string            `gorm:"column:owner_id;type:varchar(64);not null;index:idx_content_owner_date,priority:1" json:"ownerId"`
	Title       string            `gorm:"column:title;type:varchar(255);not null" json:"title"`
	ContentType types.ContentType `gorm:"column:content_type;type:varchar(32);not null" json:"contentType"`
	Description string            `gorm:"column:description;type:text" json:"description"`
	// URL is nil when no artifact was produced (unsupported content type).
	URL *string `gorm:"column:url;type:text" json:"url"`
	// Metadata carries provider details such as provider name and output format.
	Metadata    datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	DateCreated time.Time         `gorm:"column:date_created;not null;index:idx_content_owner_date,priority:2,sort:desc" json:"dateCreated"`
}

func (ContentItem) TableName() string {
	return "content"
}
