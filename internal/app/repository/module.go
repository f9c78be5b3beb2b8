package repository

import "go.uber.org/fx"

// Module exposes the gorm repositories via Fx.
var Module = fx.Options(
	fx.Provide(NewUserRepository),
	fx.Provide(NewSubscriptionRepository),
	fx.Provide(NewPaymentRepository),
	fx.Provide(NewContentRepository),
)
