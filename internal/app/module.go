package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/genstudio/internal/app/api/server"
	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/account"
	"github.com/fatflowers/genstudio/internal/app/service/content"
	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/app/service/statistics"
	"github.com/fatflowers/genstudio/internal/app/service/subscription"
	"github.com/fatflowers/genstudio/internal/platform/artifact"
	"github.com/fatflowers/genstudio/internal/platform/cache"
	"github.com/fatflowers/genstudio/internal/platform/db"
	"github.com/fatflowers/genstudio/internal/platform/provider"
	"github.com/fatflowers/genstudio/pkg/config"
	"github.com/fatflowers/genstudio/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	cache.Module,
	artifact.Module,
	provider.Module,
	repository.Module,
	entitlement.Module,
	subscription.Module,
	account.Module,
	content.Module,
	statistics.Module,
	server.Module,
)
