package db

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/genstudio/internal/models"
	cfgpkg "github.com/fatflowers/genstudio/pkg/config"
	gormzap "github.com/fatflowers/genstudio/pkg/gormlog"
)

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:         gormzap.New(l, cfg.Env == cfgpkg.EnvDev),
		TranslateError: true,
	})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to postgres via DSN")
	return db, nil
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(Migrate),
	fx.Invoke(registerDBClose),
)

// Migrate runs once on startup, before the HTTP server accepts requests.
func Migrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := dedupeActiveSubscriptions(l, db); err != nil {
		l.Errorf("dedupe active subscriptions failed: %v", err)
		return err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.SubscriptionLog{},
		&models.Payment{},
		&models.ContentItem{},
	); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	if err := EnsureContentURLColumn(l, db.Migrator()); err != nil {
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// columnMigrator is the part of gorm.Migrator used by EnsureContentURLColumn.
type columnMigrator interface {
	HasColumn(dst interface{}, field string) bool
	AddColumn(dst interface{}, field string) error
}

// EnsureContentURLColumn adds the nullable content.url column when missing.
// A failed ALTER is tolerated only if the column turns out to exist anyway,
// e.g. because another instance added it concurrently.
func EnsureContentURLColumn(l *zap.SugaredLogger, m columnMigrator) error {
	if m.HasColumn(&models.ContentItem{}, "url") {
		return nil
	}
	err := m.AddColumn(&models.ContentItem{}, "URL")
	if err == nil {
		l.Infow("added content.url column")
		return nil
	}
	if m.HasColumn(&models.ContentItem{}, "url") {
		l.Warnw("add content.url column failed but column exists", "err", err)
		return nil
	}
	l.Errorw("add content.url column failed", "err", err)
	return err
}

// dedupeActiveSubscriptions cancels all but the latest active row per user so
// the partial unique index can be created on databases written before it
// existed.
func dedupeActiveSubscriptions(l *zap.SugaredLogger, db *gorm.DB) error {
	if !db.Migrator().HasTable(&models.Subscription{}) {
		return nil
	}
	res := db.Exec(`UPDATE subscription SET status = 'cancelled', updated_at = NOW()
WHERE status = 'active' AND id NOT IN (
	SELECT DISTINCT ON (user_id) id FROM subscription
	WHERE status = 'active'
	ORDER BY user_id, end_date DESC
)`)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		l.Warnw("cancelled duplicate active subscriptions", "rows", res.RowsAffected)
	}
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
}
