// Package entitlement derives what a user may currently do from their
// persisted subscriptions and today's usage.
package entitlement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/internal/platform/cache"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/types"
)

const (
	PremiumDailyLimit int64 = 999999
	FreeDailyLimit    int64 = 5
)

// Snapshot is the derived entitlement of a user at evaluation time.
type Snapshot struct {
	Tier       types.Tier `json:"tier"`
	DailyLimit int64      `json:"dailyLimit"`
	UsedToday  int64      `json:"usedToday"`

	// set by Reserve when a counter slot is held for userID
	userID string
	held   bool
}

// Exhausted reports whether no generation is left for today.
func (s Snapshot) Exhausted() bool {
	return s.UsedToday >= s.DailyLimit
}

// Status is the subscription view served to clients.
type Status struct {
	Subscription *models.Subscription
	IsPremium    bool
	Tier         types.Tier
}

type SubscriptionReader interface {
	FindLatestActive(ctx context.Context, userID string) (*models.Subscription, error)
}

type Service struct {
	subs  SubscriptionReader
	usage cache.UsageCounter
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(subs SubscriptionReader, usage cache.UsageCounter, l *zap.SugaredLogger) *Service {
	return &Service{subs: subs, usage: usage, log: l, now: time.Now}
}

// WithClock replaces the evaluation clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Status reads the latest active subscription and classifies the user. An
// active row whose end date is not strictly in the future yields free tier.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	sub, err := s.subs.FindLatestActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	premium := sub.ValidAt(s.now())
	return &Status{Subscription: sub, IsPremium: premium, Tier: TierOf(premium)}, nil
}

// Evaluate returns tier, daily limit and today's usage. A failing usage
// counter degrades to zero usage instead of failing the request.
func (s *Service) Evaluate(ctx context.Context, userID string) (*Snapshot, error) {
	st, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	used, err := s.usage.UsedToday(ctx, userID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("read usage counter failed", "user_id", userID, "err", err)
		used = 0
	}
	return &Snapshot{Tier: st.Tier, DailyLimit: LimitOf(st.Tier), UsedToday: used}, nil
}

// Reserve takes one generation slot for today. It fails with a quota error
// when the limit is reached. A failing usage counter lets the request through
// without holding a slot.
func (s *Service) Reserve(ctx context.Context, userID string) (*Snapshot, error) {
	st, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}
	limit := LimitOf(st.Tier)
	snap := &Snapshot{Tier: st.Tier, DailyLimit: limit, userID: userID}

	ok, used, err := s.usage.Reserve(ctx, userID, limit)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("reserve usage slot failed", "user_id", userID, "err", err)
		return snap, nil
	}
	snap.UsedToday = used
	if !ok {
		logctx.FromCtx(ctx, s.log).Infow("generation refused, daily limit reached", "user_id", userID, "used", used, "limit", limit)
		return nil, apperr.QuotaExceeded(used, limit)
	}
	snap.held = true
	return snap, nil
}

// Release gives back the slot held by snap. Calling it twice is harmless.
func (s *Service) Release(ctx context.Context, snap *Snapshot) {
	if snap == nil || !snap.held {
		return
	}
	snap.held = false
	if err := s.usage.Release(ctx, snap.userID); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("release usage slot failed", "user_id", snap.userID, "err", err)
	}
}

func TierOf(premium bool) types.Tier {
	if premium {
		return types.TierPremium
	}
	return types.TierFree
}

func LimitOf(tier types.Tier) int64 {
	if tier == types.TierPremium {
		return PremiumDailyLimit
	}
	return FreeDailyLimit
}
