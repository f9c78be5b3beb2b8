package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/types"
)

type memUsers struct {
	byID map[string]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id, username, email string) error {
	if u, ok := m.byID[id]; ok {
		u.Username, u.Email = username, email
	}
	return nil
}

type fixedEvaluator struct{ snap entitlement.Snapshot }

func (f fixedEvaluator) Evaluate(context.Context, string) (*entitlement.Snapshot, error) {
	s := f.snap
	return &s, nil
}

var freeSnap = entitlement.Snapshot{Tier: types.TierFree, DailyLimit: entitlement.FreeDailyLimit}

func newTestService(users UserStore, ev Evaluator) *Service {
	svc := NewService(users, ev, zap.NewNop().Sugar())
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestRegisterThenLogin(t *testing.T) {
	users := newMemUsers()
	svc := newTestService(users, fixedEvaluator{snap: freeSnap})
	ctx := context.Background()

	id, err := svc.Register(ctx, &RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.NotEqual(t, "s3cret", users.byID[id].Password, "password must be hashed")

	u, err := svc.Login(ctx, "ann@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "ann", u.Username)
	assert.Equal(t, types.TierFree, u.SubscriptionType)
	assert.Equal(t, int64(5), u.GenerationsLimit)
	assert.Zero(t, u.GenerationsToday)

	_, err = svc.Login(ctx, "ann@example.com", "wrong")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
	assert.Equal(t, 401, apperr.HTTPStatus(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newMemUsers(&models.User{ID: "u1", Email: "ann@example.com"})
	svc := newTestService(users, fixedEvaluator{snap: freeSnap})

	_, err := svc.Register(context.Background(), &RegisterRequest{Username: "ann", Email: "ann@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Equal(t, 400, apperr.HTTPStatus(err))
	assert.Equal(t, "User already exists", err.Error())
}

func TestLogin_LegacyPlaintextPassword(t *testing.T) {
	users := newMemUsers(&models.User{ID: "u1", Username: "old", Email: "old@example.com", Password: "plain"})
	premium := entitlement.Snapshot{Tier: types.TierPremium, DailyLimit: entitlement.PremiumDailyLimit}
	svc := newTestService(users, fixedEvaluator{snap: premium})

	u, err := svc.Login(context.Background(), "old@example.com", "plain")
	require.NoError(t, err)
	assert.Equal(t, types.TierPremium, u.SubscriptionType)
	assert.Equal(t, int64(999999), u.GenerationsLimit)

	_, err = svc.Login(context.Background(), "old@example.com", "plainx")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService(newMemUsers(), fixedEvaluator{snap: freeSnap})
	_, err := svc.Login(context.Background(), "nobody@example.com", "x")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestProfile(t *testing.T) {
	users := newMemUsers(&models.User{ID: "u1", Username: "ann", Email: "ann@example.com"})
	svc := newTestService(users, fixedEvaluator{snap: freeSnap})
	ctx := context.Background()

	_, err := svc.GetProfile(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	require.NoError(t, svc.UpdateProfile(ctx, "u1", &UpdateProfileRequest{Username: "anna", Email: "anna@example.com"}))
	u, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "anna", u.Username)
	assert.Equal(t, "anna@example.com", u.Email)
}
