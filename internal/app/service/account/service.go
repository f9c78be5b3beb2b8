// Package account handles registration, login and profiles.
package account

import (
	"context"
	"crypto/subtle"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/tool"
	"github.com/fatflowers/genstudio/pkg/types"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, username, email string) error
}

type Evaluator interface {
	Evaluate(ctx context.Context, userID string) (*entitlement.Snapshot, error)
}

type Service struct {
	users        UserStore
	entitlements Evaluator
	log          *zap.SugaredLogger
	bcryptCost   int
}

func NewService(users UserStore, entitlements Evaluator, l *zap.SugaredLogger) *Service {
	return &Service{users: users, entitlements: entitlements, log: l, bcryptCost: bcrypt.DefaultCost}
}

// LoginUser is the login payload: the profile plus the derived entitlement.
type LoginUser struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	SubscriptionType types.Tier `json:"subscriptionType"`
	GenerationsLimit int64      `json:"generationsLimit"`
	GenerationsToday int64      `json:"generationsToday"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	if req == nil || req.Email == "" || req.Password == "" {
		return "", apperr.Validation("email and password are required")
	}
	email := strings.TrimSpace(req.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", apperr.Conflict("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return "", apperr.Validation("invalid password: %v", err)
	}
	u := &models.User{
		ID:       tool.GenerateUUIDV7(),
		Username: req.Username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	logctx.FromCtx(ctx, s.log).Infow("user registered", "user_id", u.ID)
	return u.ID, nil
}

// Login checks the credentials and attaches the user's current entitlement.
// Usage is reported from the usage counter, which is zero unless counting is
// enabled.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginUser, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !s.passwordMatches(ctx, u, password) {
		return nil, apperr.Authentication("Invalid credentials")
	}
	snap, err := s.entitlements.Evaluate(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &LoginUser{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		SubscriptionType: snap.Tier,
		GenerationsLimit: snap.DailyLimit,
		GenerationsToday: snap.UsedToday,
	}, nil
}

// passwordMatches accepts bcrypt hashes, and plaintext for rows written before
// passwords were hashed.
func (s *Service) passwordMatches(ctx context.Context, u *models.User, password string) bool {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	}
	logctx.FromCtx(ctx, s.log).Warnw("user has a plaintext password on record", "user_id", u.ID)
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (s *Service) UpdateProfile(ctx context.Context, id string, req *UpdateProfileRequest) error {
	if id == "" || req == nil {
		return apperr.Validation("user id is required")
	}
	if err := s.users.UpdateProfile(ctx, id, req.Username, strings.TrimSpace(req.Email)); err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("profile updated", "user_id", id)
	return nil
}
