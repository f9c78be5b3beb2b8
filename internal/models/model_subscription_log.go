package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/genstudio/pkg/types"
)

// SubscriptionLog records changes to user subscriptions.
// Use case: troubleshooting.
type SubscriptionLog struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID         string `gorm:"column:user_id;type:varchar(64);index:idx_subscription_log_user_id;not null" json:"userId"`
	SubscriptionID string `gorm:"column:subscription_id;type:varchar(64)" json:"subscriptionId"`
	// Reason is the change reason.
	Reason types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	// Before stores subscription data before the change in JSON format.
	Before datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb" json:"before"`
	// After stores subscription data after the change in JSON format.
	After datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb" json:"after"`
	// Extra stores additional context such as the payment method.
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb" json:"extra"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}
