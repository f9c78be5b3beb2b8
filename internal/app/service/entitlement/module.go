package entitlement

import (
	"go.uber.org/fx"

	"github.com/fatflowers/genstudio/internal/app/repository"
)

// Module exposes the entitlement evaluator via Fx.
var Module = fx.Options(
	fx.Provide(func(r *repository.SubscriptionRepository) SubscriptionReader { return r }),
	fx.Provide(NewService),
)
