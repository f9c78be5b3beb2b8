package subscription

import (
	"go.uber.org/fx"

	"github.com/fatflowers/genstudio/internal/app/repository"
)

// Module exposes the subscription lifecycle manager via Fx.
var Module = fx.Options(
	fx.Provide(func(r *repository.SubscriptionRepository) Store { return r }),
	fx.Provide(NewService),
)
