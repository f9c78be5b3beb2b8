// Package provider talks to external image generation services.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/config"
)

// ImageRequest is a text-to-image request.
type ImageRequest struct {
	Prompt       string
	OutputFormat string
}

// Image is a generated image as raw bytes.
type Image struct {
	Data     []byte
	Format   string
	Provider string
}

// ImageProvider generates an image from a prompt. Non-success answers are
// reported as *apperr.ProviderError; a missing API key as a missing
// credential error, before any network call.
type ImageProvider interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) (*Image, error)
}

// New builds the provider selected by provider.driver wrapped with timeout
// and retry.
func New(cfg *config.Config, l *zap.SugaredLogger) (ImageProvider, error) {
	var p ImageProvider
	switch cfg.Provider.Driver {
	case config.ProviderDriverStability, "":
		p = NewStability(cfg.Provider, http.DefaultClient)
	case config.ProviderDriverOpenAI:
		p = NewOpenAI(cfg.Provider)
	default:
		return nil, fmt.Errorf("unsupported provider driver: %s", cfg.Provider.Driver)
	}
	if cfg.Provider.APIKey == "" {
		l.Warnw("image provider API key is not configured, image generation will fail", "provider", p.Name())
	}
	return NewRetrying(p, cfg.Provider.Timeout, cfg.Provider.MaxAttempts, l), nil
}

var Module = fx.Options(
	fx.Provide(New),
)
