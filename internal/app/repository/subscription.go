package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/tool"
	"github.com/fatflowers/genstudio/pkg/types"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// ActivateParams describes one activation: the new window and the payment
// logged for it.
type ActivateParams struct {
	UserID        string
	StartDate     time.Time
	EndDate       time.Time
	Amount        float64
	PaymentMethod string
}

type ActivateResult struct {
	// Previous is the active row as it was before the upsert, nil on first
	// activation.
	Previous     *models.Subscription
	Subscription *models.Subscription
	Payment      *models.Payment
}

// FindLatestActive returns the active subscription with the latest end date,
// or nil, nil when the user has none.
func (r *SubscriptionRepository) FindLatestActive(ctx context.Context, userID string) (*models.Subscription, error) {
	sub, err := findLatestActive(r.db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperr.Persistence("find active subscription", err)
	}
	return sub, nil
}

func findLatestActive(tx *gorm.DB, userID string) (*models.Subscription, error) {
	var rows []*models.Subscription
	err := tx.Where("user_id = ? AND status = ?", userID, types.SubscriptionStatusActive).
		Order("end_date DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// activeConflict targets uniq_subscription_user_active. The predicate must
// match the index definition literally for postgres to infer it.
var activeConflict = clause.OnConflict{
	Columns:     []clause.Column{{Name: "user_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "status = 'active'"}}},
	DoUpdates:   clause.AssignmentColumns([]string{"start_date", "end_date", "updated_at"}),
}

// Activate creates or extends the user's active subscription and logs one
// payment, all in a single transaction. The upsert is one statement guarded
// by the partial unique index, so concurrent activations for a user cannot
// produce two active rows.
func (r *SubscriptionRepository) Activate(ctx context.Context, p ActivateParams) (*ActivateResult, error) {
	res := &ActivateResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prev, err := findLatestActive(tx, p.UserID)
		if err != nil {
			return err
		}
		res.Previous = prev

		sub := &models.Subscription{
			ID:        tool.GenerateUUIDV7(),
			UserID:    p.UserID,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Status:    types.SubscriptionStatusActive,
		}
		if err := tx.Clauses(
			activeConflict,
			clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
		).Create(sub).Error; err != nil {
			return err
		}
		res.Subscription = sub

		payment := &models.Payment{
			ID:             tool.GenerateUUIDV7(),
			SubscriptionID: sub.ID,
			Amount:         p.Amount,
			PaymentDate:    p.StartDate,
			PaymentMethod:  p.PaymentMethod,
			State:          types.PaymentStateCompleted,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		res.Payment = payment
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence("activate subscription", err)
	}
	return res, nil
}

// CancelActive flips every active row of the user to cancelled and returns
// the affected rows. No active rows is not an error.
func (r *SubscriptionRepository) CancelActive(ctx context.Context, userID string) ([]models.Subscription, error) {
	var rows []models.Subscription
	err := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("user_id = ? AND status = ?", userID, types.SubscriptionStatusActive).
		Update("status", types.SubscriptionStatusCancelled).Error
	if err != nil {
		return nil, apperr.Persistence("cancel subscription", err)
	}
	return rows, nil
}

func (r *SubscriptionRepository) SaveLog(ctx context.Context, log *models.SubscriptionLog) error {
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return apperr.Persistence("save subscription log", err)
	}
	return nil
}
