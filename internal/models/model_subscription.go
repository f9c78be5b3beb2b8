package models

import (
	"time"

	"github.com/fatflowers/genstudio/pkg/types"
)

// Subscription is a premium window for a user. At most one row per user may be
// active; the partial unique index enforces it and backs the activation upsert.
type Subscription struct {
	ID        string                   `gorm:"column:id;type:uuid;primary_key" json:"subscriptionId"`
	UserID    string                   `gorm:"column:user_id;type:varchar(64);not null;index:idx_subscription_user_id;uniqueIndex:uniq_subscription_user_active,where:status = 'active'" json:"userId"`
	StartDate time.Time                `gorm:"column:start_date;not null" json:"startDate"`
	EndDate   time.Time                `gorm:"column:end_date;not null" json:"endDate"`
	Status    types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

func (Subscription) TableName() string {
	return "subscription"
}

// ValidAt reports whether the subscription grants premium access at t.
// An active row whose end date has passed does not.
func (s *Subscription) ValidAt(t time.Time) bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.EndDate.After(t)
}
