package statistics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/types"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	mock.MatchExpectationsInOrder(false)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	svc := New(gdb, zap.NewNop().Sugar())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, mock
}

func TestGet_ComputesEachStatistic(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscription" WHERE status = \$1 AND end_date > \$2`).
		WithArgs(types.SubscriptionStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`FROM "content" WHERE "content_type" = \$1 GROUP BY`).
		WithArgs("image").
		WillReturnRows(sqlmock.NewRows([]string{"date", "label", "value"}).
			AddRow("2026-02-27", "image", 3).
			AddRow("2026-02-28", "image", 5))

	res, err := svc.Get(context.Background(), &Request{
		Filters: []*types.CommonFilter{{Field: "content_type", Operator: types.CommonFilterOperatorEq, Values: []any{"image"}}},
		DataItems: []*DataItem{
			{ID: StatisticTypeActiveSubscriptionCount},
			{ID: StatisticTypeDailyGenerationCount},
			{ID: StatisticTypeDailyGenerationCount},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []DataPoint{{Value: 7}}, res.DataItems[StatisticTypeActiveSubscriptionCount])
	assert.Equal(t, []DataPoint{
		{Date: "2026-02-27", Label: "image", Value: 3},
		{Date: "2026-02-28", Label: "image", Value: 5},
	}, res.DataItems[StatisticTypeDailyGenerationCount])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_RevenueSeriesIsOldestFirst(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM "payment" WHERE state = \$1 .*GROUP BY TO_CHAR\(payment_date, 'YYYY-MM-DD'\) ORDER BY date$`).
		WithArgs(types.PaymentStateCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"date", "value"}).
			AddRow("2026-02-27", 1000).
			AddRow("2026-02-28", 2000))

	res, err := svc.Get(context.Background(), &Request{DataItems: []*DataItem{{ID: StatisticTypeDailyRevenue}}})
	require.NoError(t, err)
	assert.Equal(t, []DataPoint{
		{Date: "2026-02-27", Value: 1000},
		{Date: "2026-02-28", Value: 2000},
	}, res.DataItems[StatisticTypeDailyRevenue])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_FiltersOnlyApplyWhereUnderstood(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM "payment" WHERE 1=1 GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"date", "value"}).AddRow("2026-02-28", 2))

	res, err := svc.Get(context.Background(), &Request{
		Filters:   []*types.CommonFilter{{Field: "content_type", Operator: types.CommonFilterOperatorEq, Values: []any{"video"}}},
		DataItems: []*DataItem{{ID: StatisticTypeDailyPaymentCount}},
	})
	require.NoError(t, err)
	assert.Equal(t, []DataPoint{{Date: "2026-02-28", Value: 2}}, res.DataItems[StatisticTypeDailyPaymentCount])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_EmptySeriesIsNotNil(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`FROM "subscription"`).
		WillReturnRows(sqlmock.NewRows([]string{"date", "value"}))

	res, err := svc.Get(context.Background(), &Request{DataItems: []*DataItem{{ID: StatisticTypeDailyNewSubscriptionCount}}})
	require.NoError(t, err)
	assert.NotNil(t, res.DataItems[StatisticTypeDailyNewSubscriptionCount])
	assert.Empty(t, res.DataItems[StatisticTypeDailyNewSubscriptionCount])
}

func TestGet_QueryFailureIsPersistence(t *testing.T) {
	svc, mock := newTestService(t)
	mock.ExpectQuery(`FROM "payment"`).WillReturnError(errors.New("statement timeout"))

	_, err := svc.Get(context.Background(), &Request{DataItems: []*DataItem{{ID: StatisticTypeDailyRevenue}}})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.Contains(t, err.Error(), "statement timeout")
}

func TestRequest_Validate(t *testing.T) {
	cases := []struct {
		name string
		req  *Request
	}{
		{"no items", &Request{}},
		{"unknown statistic", &Request{DataItems: []*DataItem{{ID: "daily_gmv"}}}},
		{"unknown filter column", &Request{
			DataItems: []*DataItem{{ID: StatisticTypeDailyPaymentCount}},
			Filters:   []*types.CommonFilter{{Field: "password", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}
