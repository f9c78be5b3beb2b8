package models

import (
	"time"

	"github.com/fatflowers/genstudio/pkg/types"
)

// Payment is an append-only log entry written once per activation.
type Payment struct {
	ID             string             `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string             `gorm:"column:subscription_id;type:uuid;not null;index:idx_payment_subscription_id" json:"subscriptionId"`
	Amount         float64            `gorm:"column:amount;type:numeric(10,2);not null" json:"amount"`
	PaymentDate    time.Time          `gorm:"column:payment_date;not null" json:"paymentDate"`
	PaymentMethod  string             `gorm:"column:payment_method;type:varchar(64);not null" json:"paymentMethod"`
	State          types.PaymentState `gorm:"column:state;type:varchar(32);not null" json:"state"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func (Payment) TableName() string {
	return "payment"
}
