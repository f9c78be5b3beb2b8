package repository

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/types"
)

// PaymentColumns lists the columns admins may filter and sort payments by.
var PaymentColumns = []string{
	"id", "subscription_id", "amount", "payment_date", "payment_method", "state", "created_at",
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// Validate checks filter and sort columns and applies paging defaults.
func (req *ScanPaymentsRequest) Validate() error {
	for _, f := range req.Filters {
		if err := f.Validate(PaymentColumns); err != nil {
			return apperr.Validation("%v", err)
		}
	}
	if req.SortBy != "" && !lo.Contains(PaymentColumns, req.SortBy) {
		return apperr.Validation("cannot sort by %q", req.SortBy)
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}
	return nil
}

// Scan lists payments page by page for the admin surface.
func (r *PaymentRepository) Scan(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scoped := func() *gorm.DB {
		tx := r.db.WithContext(ctx).Model(&models.Payment{})
		if len(req.Filters) > 0 {
			tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd{Filters: req.Filters}}})
		}
		return tx
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, apperr.Persistence("count payments", err)
	}

	var rows []*models.Payment
	q := scoped().Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "payment_date"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}})
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("list payments", err)
	}

	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}
