package subscription

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/config"
	"github.com/fatflowers/genstudio/pkg/types"
)

// memStore mimics the repository upsert: one active row per user, one
// payment per activation.
type memStore struct {
	mu        sync.Mutex
	subs      map[string]*models.Subscription
	payments  []*models.Payment
	logs      []*models.SubscriptionLog
	activeErr error
	seq       int
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]*models.Subscription{}}
}

func (m *memStore) Activate(_ context.Context, p repository.ActivateParams) (*repository.ActivateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	res := &repository.ActivateResult{}
	cur, ok := m.subs[p.UserID]
	if ok && cur.Status == types.SubscriptionStatusActive {
		prev := *cur
		res.Previous = &prev
		cur.StartDate, cur.EndDate = p.StartDate, p.EndDate
	} else {
		m.seq++
		cur = &models.Subscription{ID: "s" + string(rune('0'+m.seq)), UserID: p.UserID, StartDate: p.StartDate, EndDate: p.EndDate, Status: types.SubscriptionStatusActive}
		m.subs[p.UserID] = cur
	}
	out := *cur
	res.Subscription = &out
	pay := &models.Payment{ID: "p", SubscriptionID: cur.ID, Amount: p.Amount, PaymentMethod: p.PaymentMethod, State: types.PaymentStateCompleted}
	m.payments = append(m.payments, pay)
	res.Payment = pay
	return res, nil
}

func (m *memStore) CancelActive(_ context.Context, userID string) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.subs[userID]
	if !ok || cur.Status != types.SubscriptionStatusActive {
		return nil, nil
	}
	cur.Status = types.SubscriptionStatusCancelled
	return []models.Subscription{*cur}, nil
}

func (m *memStore) SaveLog(_ context.Context, l *models.SubscriptionLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func newTestService(t *testing.T, store Store, secret string) (*Service, *sync.WaitGroup) {
	t.Helper()
	svc := NewService(&config.Config{Payment: config.PaymentConfig{SecretKey: secret}}, store, zap.NewNop().Sugar())
	wg := &sync.WaitGroup{}
	svc.logWritten = wg.Done
	return svc, wg
}

func TestActivate_TwiceKeepsOneRowAndTwoPayments(t *testing.T) {
	store := newMemStore()
	svc, wg := newTestService(t, store, "")
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }

	wg.Add(1)
	r1, err := svc.Activate(context.Background(), &ActivateRequest{UserID: "u1", PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, first.AddDate(0, 0, 30), r1.EndDate)

	second := first.Add(time.Minute)
	svc.now = func() time.Time { return second }
	wg.Add(1)
	r2, err := svc.Activate(context.Background(), &ActivateRequest{UserID: "u1"})
	require.NoError(t, err)
	wg.Wait()

	assert.Equal(t, r1.SubscriptionID, r2.SubscriptionID)
	assert.Equal(t, second.AddDate(0, 0, 30), r2.EndDate)
	assert.Len(t, store.subs, 1)
	require.Len(t, store.payments, 2)
	assert.Equal(t, "card", store.payments[0].PaymentMethod)
	assert.Equal(t, "Test Card", store.payments[1].PaymentMethod)
	assert.Equal(t, 10.00, store.payments[1].Amount)

	require.Len(t, store.logs, 2)
	reasons := []types.SubscriptionChangeReason{store.logs[0].Reason, store.logs[1].Reason}
	assert.ElementsMatch(t, []types.SubscriptionChangeReason{types.SubscriptionChangeReasonActivate, types.SubscriptionChangeReasonExtend}, reasons)
}

func TestActivate_Validation(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), "")
	_, err := svc.Activate(context.Background(), &ActivateRequest{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestActivate_PersistenceErrorIsReturned(t *testing.T) {
	store := newMemStore()
	store.activeErr = apperr.Persistence("activate subscription", errors.New("deadlock"))
	svc, _ := newTestService(t, store, "")

	_, err := svc.Activate(context.Background(), &ActivateRequest{UserID: "u1"})
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.Empty(t, store.payments)
}

func TestCancel_Idempotent(t *testing.T) {
	store := newMemStore()
	svc, wg := newTestService(t, store, "")

	require.NoError(t, svc.Cancel(context.Background(), "nobody"))

	wg.Add(1)
	_, err := svc.Activate(context.Background(), &ActivateRequest{UserID: "u1"})
	require.NoError(t, err)

	wg.Add(1)
	require.NoError(t, svc.Cancel(context.Background(), "u1"))
	require.NoError(t, svc.Cancel(context.Background(), "u1"))
	wg.Wait()

	assert.Equal(t, types.SubscriptionStatusCancelled, store.subs["u1"].Status)
	require.Len(t, store.logs, 2)
	var cancelLog *models.SubscriptionLog
	for _, l := range store.logs {
		if l.Reason == types.SubscriptionChangeReasonCancel {
			cancelLog = l
		}
	}
	require.NotNil(t, cancelLog)
	assert.Equal(t, types.SubscriptionStatusActive, cancelLog.Before.Data().Status)
	assert.Equal(t, types.SubscriptionStatusCancelled, cancelLog.After.Data().Status)
}

func TestCreateCheckout(t *testing.T) {
	svc, wg := newTestService(t, newMemStore(), "sk_test_123")

	co, err := svc.CreateCheckout(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, co.TestMode)
	assert.True(t, strings.HasPrefix(co.SessionID, "test_session_"))

	wg.Add(1)
	_, err = svc.Activate(context.Background(), &ActivateRequest{UserID: "u1", SessionID: co.SessionID})
	require.NoError(t, err)
	wg.Wait()

	_, err = svc.Activate(context.Background(), &ActivateRequest{UserID: "u2", SessionID: co.SessionID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Activate(context.Background(), &ActivateRequest{UserID: "u1", SessionID: "test_session_garbage"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateCheckout_ForeignKeyRejected(t *testing.T) {
	issuer, _ := newTestService(t, newMemStore(), "other-secret")
	co, err := issuer.CreateCheckout(context.Background(), "u1")
	require.NoError(t, err)

	svc, _ := newTestService(t, newMemStore(), "sk_test_123")
	_, err = svc.Activate(context.Background(), &ActivateRequest{UserID: "u1", SessionID: co.SessionID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateCheckout_MissingSecret(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), "")
	_, err := svc.CreateCheckout(context.Background(), "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindMissingCredential))
	assert.Equal(t, 500, apperr.HTTPStatus(err))
}

func TestCreateCheckout_Expired(t *testing.T) {
	svc, _ := newTestService(t, newMemStore(), "sk_test_123")
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	co, err := svc.CreateCheckout(context.Background(), "u1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Activate(context.Background(), &ActivateRequest{UserID: "u1", SessionID: co.SessionID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
