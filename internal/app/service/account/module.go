package account

import (
	"go.uber.org/fx"

	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
)

// Module exposes the account service via Fx.
var Module = fx.Options(
	fx.Provide(func(r *repository.UserRepository) UserStore { return r }),
	fx.Provide(func(e *entitlement.Service) Evaluator { return e }),
	fx.Provide(NewService),
)
