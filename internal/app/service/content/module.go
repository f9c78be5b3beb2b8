package content

import (
	"go.uber.org/fx"

	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
)

// Module exposes the generation orchestrator via Fx.
var Module = fx.Options(
	fx.Provide(func(r *repository.ContentRepository) Repository { return r }),
	fx.Provide(func(e *entitlement.Service) Entitlements { return e }),
	fx.Provide(NewService),
)
