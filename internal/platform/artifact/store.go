// Package artifact persists generated media and hands back a locator the
// client can fetch it from.
package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/config"
	"github.com/fatflowers/genstudio/pkg/tool"
)

const defaultFormat = "png"

// Store persists bytes and returns a stable locator for them.
type Store interface {
	// Store saves data as an image of the given format (png, jpeg, webp).
	Store(ctx context.Context, data []byte, format string) (string, error)
	// Delete removes the artifact behind a locator returned by Store.
	// Deleting a missing artifact succeeds.
	Delete(ctx context.Context, locator string) error
	Driver() string
}

// NewKey returns a collision-free object name for a generated image.
func NewKey(format string) string {
	return fmt.Sprintf("generated_%d_%s.%s", time.Now().UnixNano(), tool.RandomSuffix(), extension(format))
}

func extension(format string) string {
	switch f := strings.ToLower(strings.TrimPrefix(format, ".")); f {
	case "":
		return defaultFormat
	case "jpg":
		return "jpeg"
	default:
		return f
	}
}

func contentType(format string) string {
	return "image/" + extension(format)
}

// New builds the store selected by storage.driver.
func New(lc fx.Lifecycle, cfg *config.Config, l *zap.SugaredLogger) (Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverS3:
		s, err := NewS3Store(context.Background(), cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := s.EnsureBucket(ctx); err != nil {
					l.Errorw("ensure artifact bucket failed", "bucket", cfg.Storage.S3.Bucket, "err", err)
					return err
				}
				return nil
			},
		})
		l.Infow("artifact store ready", "driver", "s3", "bucket", cfg.Storage.S3.Bucket)
		return s, nil
	case config.StorageDriverLocal, "":
		l.Infow("artifact store ready", "driver", "local", "dir", cfg.Storage.UploadDir)
		return NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicPath), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

var Module = fx.Options(
	fx.Provide(New),
)
