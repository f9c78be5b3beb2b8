// Package content orchestrates media generation and manages the content
// library of each user.
package content

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/internal/platform/artifact"
	"github.com/fatflowers/genstudio/internal/platform/provider"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/metrics"
	"github.com/fatflowers/genstudio/pkg/tool"
	"github.com/fatflowers/genstudio/pkg/types"
)

const (
	titleMaxRunes       = 100
	placeholderMaxRunes = 30
	placeholderBaseURL  = "https://placehold.co/400x300/764ba2/ffffff?text="
	defaultImageFormat  = "png"
)

type Repository interface {
	Create(ctx context.Context, item *models.ContentItem) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ContentItem, error)
	DeleteByID(ctx context.Context, id string) error
}

type Entitlements interface {
	Reserve(ctx context.Context, userID string) (*entitlement.Snapshot, error)
	Release(ctx context.Context, snap *entitlement.Snapshot)
}

type Service struct {
	repo         Repository
	entitlements Entitlements
	images       provider.ImageProvider
	artifacts    artifact.Store
	imageFormat  string
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewService(
	repo Repository,
	entitlements Entitlements,
	images provider.ImageProvider,
	artifacts artifact.Store,
	cfg *config.Config,
	l *zap.SugaredLogger,
) *Service {
	format := cfg.Provider.OutputFormat
	if format == "" {
		format = defaultImageFormat
	}
	return &Service{
		repo:         repo,
		entitlements: entitlements,
		images:       images,
		artifacts:    artifacts,
		imageFormat:  format,
		log:          l,
		now:          time.Now,
	}
}

type GenerateRequest struct {
	UserID      string            `json:"userId"`
	Type        types.ContentType `json:"type"`
	Description string            `json:"description"`
}

type GenerateResult struct {
	ContentID   string            `json:"contentId"`
	URL         *string           `json:"url"`
	Type        types.ContentType `json:"type"`
	Description string            `json:"description"`
}

// Generate produces the artifact for req and records it in the user's
// library. A quota slot is held for the whole call and given back when the
// generation does not end in a stored row. No row is written when the
// provider call fails.
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (res *GenerateResult, err error) {
	if req == nil || req.UserID == "" || req.Type == "" || req.Description == "" {
		return nil, apperr.Validation("userId, type, and description are required")
	}
	log := logctx.FromCtx(ctx, s.log).With("user_id", req.UserID, "content_type", req.Type)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.IncGeneration(string(req.Type), outcome)
		metrics.ObserveProcess("generate", string(req.Type), start)
	}()

	snap, err := s.entitlements.Reserve(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.entitlements.Release(context.WithoutCancel(ctx), snap)
		}
	}()

	var (
		url    *string
		stored string
		meta   = datatypes.JSONMap{}
	)
	switch req.Type {
	case types.ContentTypeImage:
		locator, err := s.generateImage(ctx, req.Description, meta)
		if err != nil {
			log.Errorw("image generation failed", "err", err)
			return nil, fmt.Errorf("image generation failed: %w", err)
		}
		url, stored = &locator, locator
	case types.ContentTypeVideo:
		placeholder := videoPlaceholder(req.Description)
		url = &placeholder
		meta["provider"] = "placeholder"
	default:
		// Unknown types are still recorded, without an artifact.
		log.Warnw("no generation strategy for content type")
	}

	item := &models.ContentItem{
		ID:          tool.GenerateUUIDV7(),
		OwnerID:     req.UserID,
		Title:       tool.TruncateRunes(req.Description, titleMaxRunes),
		ContentType: req.Type,
		Description: req.Description,
		URL:         url,
		Metadata:    meta,
		DateCreated: s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if stored != "" {
			s.discardArtifact(ctx, stored)
		}
		return nil, err
	}
	log.Infow("content generated", "content_id", item.ID, "used_today", snap.UsedToday, "limit", snap.DailyLimit)

	return &GenerateResult{ContentID: item.ID, URL: url, Type: req.Type, Description: req.Description}, nil
}

func (s *Service) generateImage(ctx context.Context, prompt string, meta datatypes.JSONMap) (string, error) {
	img, err := s.images.GenerateImage(ctx, provider.ImageRequest{Prompt: prompt, OutputFormat: s.imageFormat})
	if err != nil {
		return "", err
	}
	format := img.Format
	if format == "" {
		format = s.imageFormat
	}
	locator, err := s.artifacts.Store(ctx, img.Data, format)
	if err != nil {
		return "", err
	}
	meta["provider"] = img.Provider
	meta["format"] = format
	meta["size"] = len(img.Data)
	meta["storage"] = s.artifacts.Driver()
	return locator, nil
}

// discardArtifact removes an artifact whose row could not be written. The
// locator is logged when removal fails so it can be cleaned up by hand.
func (s *Service) discardArtifact(ctx context.Context, locator string) {
	log := logctx.FromCtx(ctx, s.log)
	if err := s.artifacts.Delete(context.WithoutCancel(ctx), locator); err != nil {
		log.Errorw("orphaned artifact left behind", "locator", locator, "err", err)
		return
	}
	log.Warnw("discarded artifact without content row", "locator", locator)
}

// videoPlaceholder builds a fixed-format locator from the description.
func videoPlaceholder(description string) string {
	return placeholderBaseURL + encodeURIComponent("Video: "+tool.TruncateRunes(description, placeholderMaxRunes))
}

type SaveRequest struct {
	UserID      string            `json:"userId"`
	Type        types.ContentType `json:"type"`
	Description string            `json:"description"`
	URL         *string           `json:"url"`
}

// Save records an externally obtained artifact without calling a provider.
func (s *Service) Save(ctx context.Context, req *SaveRequest) (string, error) {
	if req == nil || req.UserID == "" {
		return "", apperr.Validation("userId is required")
	}
	title := tool.TruncateRunes(req.Description, titleMaxRunes)
	if title == "" {
		title = fmt.Sprintf("Generated %s", req.Type)
	}
	item := &models.ContentItem{
		ID:          tool.GenerateUUIDV7(),
		OwnerID:     req.UserID,
		Title:       title,
		ContentType: req.Type,
		Description: req.Description,
		URL:         req.URL,
		DateCreated: s.now(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return "", err
	}
	logctx.FromCtx(ctx, s.log).Infow("content saved", "user_id", req.UserID, "content_id", item.ID)
	return item.ID, nil
}

func (s *Service) ListByOwner(ctx context.Context, userID string) ([]*models.ContentItem, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *Service) DeleteByID(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("content deleted", "content_id", id)
	return nil
}
