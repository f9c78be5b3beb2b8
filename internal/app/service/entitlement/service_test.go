package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/internal/platform/cache"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/types"
)

type fakeReader struct {
	sub *models.Subscription
	err error
}

func (f fakeReader) FindLatestActive(context.Context, string) (*models.Subscription, error) {
	return f.sub, f.err
}

type fakeUsage struct {
	used     int64
	err      error
	released int
}

func (f *fakeUsage) UsedToday(context.Context, string) (int64, error) { return f.used, f.err }

func (f *fakeUsage) Reserve(_ context.Context, _ string, limit int64) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	if f.used >= limit {
		return false, f.used, nil
	}
	f.used++
	return true, f.used, nil
}

func (f *fakeUsage) Release(context.Context, string) error {
	f.released++
	if f.used > 0 {
		f.used--
	}
	return f.err
}

var now = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

func newTestService(r SubscriptionReader, u cache.UsageCounter) *Service {
	return NewService(r, u, zap.NewNop().Sugar()).WithClock(func() time.Time { return now })
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		sub       *models.Subscription
		wantTier  types.Tier
		wantLimit int64
	}{
		{name: "no subscription", wantTier: types.TierFree, wantLimit: 5},
		{
			name:      "active and current",
			sub:       &models.Subscription{Status: types.SubscriptionStatusActive, EndDate: now.Add(time.Hour)},
			wantTier:  types.TierPremium,
			wantLimit: 999999,
		},
		{
			name:      "active but expired",
			sub:       &models.Subscription{Status: types.SubscriptionStatusActive, EndDate: now.Add(-time.Second)},
			wantTier:  types.TierFree,
			wantLimit: 5,
		},
		{
			name:      "ends exactly now",
			sub:       &models.Subscription{Status: types.SubscriptionStatusActive, EndDate: now},
			wantTier:  types.TierFree,
			wantLimit: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(fakeReader{sub: tt.sub}, cache.NoopCounter{})
			snap, err := svc.Evaluate(context.Background(), "u1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, snap.Tier)
			assert.Equal(t, tt.wantLimit, snap.DailyLimit)
			assert.Zero(t, snap.UsedToday)
			assert.False(t, snap.Exhausted())
		})
	}
}

func TestEvaluate_UsesCounter(t *testing.T) {
	svc := newTestService(fakeReader{}, &fakeUsage{used: 5})
	snap, err := svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.UsedToday)
	assert.True(t, snap.Exhausted())
}

func TestEvaluate_CounterFailureDegradesToZero(t *testing.T) {
	svc := newTestService(fakeReader{}, &fakeUsage{used: 9, err: errors.New("redis down")})
	snap, err := svc.Evaluate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, snap.UsedToday)
}

func TestEvaluate_PersistenceFailure(t *testing.T) {
	svc := newTestService(fakeReader{err: apperr.Persistence("find active subscription", errors.New("timeout"))}, cache.NoopCounter{})
	_, err := svc.Evaluate(context.Background(), "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
}

func TestStatus(t *testing.T) {
	sub := &models.Subscription{ID: "s1", Status: types.SubscriptionStatusActive, EndDate: now.AddDate(0, 0, 30)}
	st, err := newTestService(fakeReader{sub: sub}, cache.NoopCounter{}).Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, st.IsPremium)
	assert.Equal(t, types.TierPremium, st.Tier)
	assert.Same(t, sub, st.Subscription)

	st, err = newTestService(fakeReader{}, cache.NoopCounter{}).Status(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, st.IsPremium)
	assert.Nil(t, st.Subscription)
}

func TestReserve(t *testing.T) {
	u := &fakeUsage{used: 3}
	svc := newTestService(fakeReader{}, u)
	ctx := context.Background()

	snap, err := svc.Reserve(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.TierFree, snap.Tier)
	assert.Equal(t, int64(4), snap.UsedToday)

	svc.Release(ctx, snap)
	svc.Release(ctx, snap)
	assert.Equal(t, 1, u.released)
	assert.Equal(t, int64(3), u.used)
}

func TestReserve_LimitReached(t *testing.T) {
	u := &fakeUsage{used: 5}
	_, err := newTestService(fakeReader{}, u).Reserve(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindQuotaExceeded))
	assert.Equal(t, int64(5), u.used)
}

func TestReserve_CounterFailureHoldsNothing(t *testing.T) {
	u := &fakeUsage{err: errors.New("redis down")}
	svc := newTestService(fakeReader{}, u)

	snap, err := svc.Reserve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, snap.UsedToday)
	svc.Release(context.Background(), snap)
	assert.Zero(t, u.released)
}

func TestReserve_Premium(t *testing.T) {
	sub := &models.Subscription{Status: types.SubscriptionStatusActive, EndDate: now.Add(time.Hour)}
	snap, err := newTestService(fakeReader{sub: sub}, &fakeUsage{used: 50}).Reserve(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PremiumDailyLimit, snap.DailyLimit)
	assert.Equal(t, int64(51), snap.UsedToday)
}
