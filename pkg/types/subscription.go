package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonActivate SubscriptionChangeReason = "activate"
	SubscriptionChangeReasonExtend   SubscriptionChangeReason = "extend"
	SubscriptionChangeReasonCancel   SubscriptionChangeReason = "cancel"
)

type PaymentState string

const (
	PaymentStateCompleted PaymentState = "completed"
)

// Tier is the access level derived from a user's subscriptions.
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)
