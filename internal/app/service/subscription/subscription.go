package subscription

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/metrics"
	"github.com/fatflowers/genstudio/pkg/types"
)

// Store is the persistence the lifecycle manager needs.
type Store interface {
	Activate(ctx context.Context, p repository.ActivateParams) (*repository.ActivateResult, error)
	CancelActive(ctx context.Context, userID string) ([]models.Subscription, error)
	SaveLog(ctx context.Context, log *models.SubscriptionLog) error
}

type Service struct {
	cfg   config.PaymentConfig
	store Store
	log   *zap.SugaredLogger
	now   func() time.Time
	// logWritten is called after every async change log attempt; tests hook it.
	logWritten func()
}

func NewService(cfg *config.Config, store Store, l *zap.SugaredLogger) *Service {
	pc := cfg.Payment
	if pc.PeriodDays <= 0 {
		pc.PeriodDays = 30
	}
	if pc.CheckoutTTL <= 0 {
		pc.CheckoutTTL = 30 * time.Minute
	}
	if pc.DefaultMethod == "" {
		pc.DefaultMethod = "Test Card"
	}
	if pc.Amount <= 0 {
		pc.Amount = 10.00
	}
	return &Service{cfg: pc, store: store, log: l, now: time.Now, logWritten: func() {}}
}

type ActivateRequest struct {
	UserID        string `json:"userId"`
	PaymentMethod string `json:"paymentMethod"`
	// SessionID is optional; when set it must be a checkout session issued
	// for the same user.
	SessionID string `json:"sessionId"`
}

type ActivateResponse struct {
	SubscriptionID string    `json:"subscriptionId"`
	EndDate        time.Time `json:"endDate"`
}

// Activate starts or extends the premium window to [now, now+period) and logs
// one payment. Persistence errors are returned as is and never retried, so a
// failed call never writes a second payment behind the caller's back.
func (s *Service) Activate(ctx context.Context, req *ActivateRequest) (*ActivateResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if req.SessionID != "" {
		if err := s.verifyCheckout(req.SessionID, req.UserID); err != nil {
			return nil, err
		}
	}
	method := req.PaymentMethod
	if method == "" {
		method = s.cfg.DefaultMethod
	}

	start := time.Now()
	defer metrics.ObserveProcess("subscription", "activate", start)

	now := s.now()
	res, err := s.store.Activate(ctx, repository.ActivateParams{
		UserID:        req.UserID,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, s.cfg.PeriodDays),
		Amount:        s.cfg.Amount,
		PaymentMethod: method,
	})
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("activate subscription failed", "user_id", req.UserID, "err", err)
		return nil, err
	}

	reason := types.SubscriptionChangeReasonActivate
	if res.Previous != nil {
		reason = types.SubscriptionChangeReasonExtend
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription activated",
		"user_id", req.UserID,
		"subscription_id", res.Subscription.ID,
		"reason", reason,
		"end_date", res.Subscription.EndDate,
	)
	s.saveLogAsync(ctx, res.Previous, res.Subscription, reason, datatypes.JSONMap{
		"payment_id":     res.Payment.ID,
		"payment_method": method,
	})

	return &ActivateResponse{SubscriptionID: res.Subscription.ID, EndDate: res.Subscription.EndDate}, nil
}

// Cancel flips the user's active subscription to cancelled. Cancelling a user
// without one succeeds and changes nothing.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.Validation("userId is required")
	}
	rows, err := s.store.CancelActive(ctx, userID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("cancel subscription failed", "user_id", userID, "err", err)
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription cancelled", "user_id", userID, "rows", len(rows))
	for i := range rows {
		after := rows[i]
		before := after
		before.Status = types.SubscriptionStatusActive
		s.saveLogAsync(ctx, &before, &after, types.SubscriptionChangeReasonCancel, nil)
	}
	return nil
}

// saveLogAsync writes the change log off the request path; failures are
// logged only.
func (s *Service) saveLogAsync(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason, extra datatypes.JSONMap) {
	lg := logctx.FromCtx(ctx, s.log)
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer s.logWritten()
		if extra == nil {
			extra = datatypes.JSONMap{}
		}
		entry := &models.SubscriptionLog{
			UserID:         after.UserID,
			SubscriptionID: after.ID,
			Reason:         reason,
			Before:         datatypes.NewJSONType(before),
			After:          datatypes.NewJSONType(after),
			Extra:          extra,
		}
		if err := s.store.SaveLog(ctx, entry); err != nil {
			lg.Errorf("failed to save subscription log: %v", err)
		}
	}()
}
