// Package statistics computes the admin dashboard series over payments,
// subscriptions and generated content.
package statistics

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyPaymentCount         StatisticType = "daily_payment_count"
	StatisticTypeDailyRevenue              StatisticType = "daily_revenue"
	StatisticTypeDailyNewSubscriptionCount StatisticType = "daily_new_subscription_count"
	StatisticTypeActiveSubscriptionCount   StatisticType = "active_subscription_count"
	StatisticTypeDailyGenerationCount      StatisticType = "daily_generation_count"
)

// filterColumns lists, per statistic, the columns its filters may reference.
// Filters on other columns are dropped for that statistic.
var filterColumns = map[StatisticType][]string{
	StatisticTypeDailyPaymentCount:         {"payment_method", "state", "payment_date"},
	StatisticTypeDailyRevenue:              {"payment_method", "state", "payment_date"},
	StatisticTypeDailyNewSubscriptionCount: {"created_at"},
	StatisticTypeActiveSubscriptionCount:   {},
	StatisticTypeDailyGenerationCount:      {"content_type", "date_created"},
}

type DataItem struct {
	ID StatisticType `json:"id"`
}

type Request struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*DataItem           `json:"data_items"`
}

// Validate rejects unknown statistics and filters no statistic understands.
func (r *Request) Validate() error {
	if len(r.DataItems) == 0 {
		return apperr.Validation("data_items is required")
	}
	for _, di := range r.DataItems {
		if di == nil {
			return apperr.Validation("nil data item")
		}
		if _, ok := filterColumns[di.ID]; !ok {
			return apperr.Validation("unknown statistic %q", di.ID)
		}
	}
	all := lo.Uniq(lo.Flatten(lo.Values(filterColumns)))
	for _, f := range r.Filters {
		if err := f.Validate(all); err != nil {
			return apperr.Validation("%v", err)
		}
	}
	return nil
}

// filtersFor returns the filters applicable to t.
func (r *Request) filtersFor(t StatisticType) types.FiltersAnd {
	cols := filterColumns[t]
	return types.FiltersAnd{Filters: lo.Filter(r.Filters, func(f *types.CommonFilter, _ int) bool {
		return lo.Contains(cols, f.Field)
	})}
}

type DataPoint struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type Response struct {
	DataItems map[StatisticType][]DataPoint `json:"data_items"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, l *zap.SugaredLogger) *Service {
	return &Service{db: db, log: l, now: time.Now}
}

func (s *Service) dailyPaymentCount(ctx context.Context, req *Request) ([]DataPoint, error) {
	var out []DataPoint
	err := s.db.WithContext(ctx).Table(models.Payment{}.TableName()).
		Select("TO_CHAR(payment_date, 'YYYY-MM-DD') AS date, count(*) AS value").
		Where(clause.Where{Exprs: []clause.Expression{req.filtersFor(StatisticTypeDailyPaymentCount)}}).
		Group("TO_CHAR(payment_date, 'YYYY-MM-DD')").
		Order("date").
		Find(&out).Error
	return out, err
}

// dailyRevenue sums amounts in cents to keep the value integral.
func (s *Service) dailyRevenue(ctx context.Context, req *Request) ([]DataPoint, error) {
	var out []DataPoint
	err := s.db.WithContext(ctx).Table(models.Payment{}.TableName()).
		Select("TO_CHAR(payment_date, 'YYYY-MM-DD') AS date, CAST(ROUND(sum(amount) * 100) AS BIGINT) AS value").
		Where("state = ?", types.PaymentStateCompleted).
		Where(clause.Where{Exprs: []clause.Expression{req.filtersFor(StatisticTypeDailyRevenue)}}).
		Group("TO_CHAR(payment_date, 'YYYY-MM-DD')").
		Order("date").
		Find(&out).Error
	return out, err
}

func (s *Service) dailyNewSubscriptionCount(ctx context.Context, req *Request) ([]DataPoint, error) {
	var out []DataPoint
	err := s.db.WithContext(ctx).Table(models.Subscription{}.TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS date, count(DISTINCT user_id) AS value").
		Where(clause.Where{Exprs: []clause.Expression{req.filtersFor(StatisticTypeDailyNewSubscriptionCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date").
		Find(&out).Error
	return out, err
}

func (s *Service) activeSubscriptionCount(ctx context.Context, _ *Request) ([]DataPoint, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("end_date > ?", s.now()).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	return []DataPoint{{Value: n}}, nil
}

func (s *Service) dailyGenerationCount(ctx context.Context, req *Request) ([]DataPoint, error) {
	var out []DataPoint
	err := s.db.WithContext(ctx).Table(models.ContentItem{}.TableName()).
		Select("TO_CHAR(date_created, 'YYYY-MM-DD') AS date, content_type AS label, count(*) AS value").
		Where(clause.Where{Exprs: []clause.Expression{req.filtersFor(StatisticTypeDailyGenerationCount)}}).
		Group("TO_CHAR(date_created, 'YYYY-MM-DD')").
		Group("content_type").
		Order("date").
		Find(&out).Error
	return out, err
}

func (s *Service) compute(ctx context.Context, req *Request, t StatisticType) ([]DataPoint, error) {
	switch t {
	case StatisticTypeDailyPaymentCount:
		return s.dailyPaymentCount(ctx, req)
	case StatisticTypeDailyRevenue:
		return s.dailyRevenue(ctx, req)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.dailyNewSubscriptionCount(ctx, req)
	case StatisticTypeActiveSubscriptionCount:
		return s.activeSubscriptionCount(ctx, req)
	case StatisticTypeDailyGenerationCount:
		return s.dailyGenerationCount(ctx, req)
	default:
		return nil, apperr.Validation("unknown statistic %q", t)
	}
}

// Get computes every requested statistic concurrently. The first failure
// fails the whole request.
func (s *Service) Get(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, apperr.Validation("nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ids := lo.Uniq(lo.Map(req.DataItems, func(di *DataItem, _ int) StatisticType { return di.ID }))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		results  = make(map[StatisticType][]DataPoint, len(ids))
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id StatisticType) {
			defer wg.Done()
			points, err := s.compute(ctx, req, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if points == nil {
				points = []DataPoint{}
			}
			results[id] = points
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		logctx.FromCtx(ctx, s.log).Errorw("compute statistics failed", "err", firstErr)
		if apperr.IsKind(firstErr, apperr.KindValidation) {
			return nil, firstErr
		}
		return nil, apperr.Persistence("compute statistics", firstErr)
	}
	return &Response{DataItems: results}, nil
}
