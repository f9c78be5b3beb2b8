package subscription

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/tool"
)

const sessionPrefix = "test_session_"

// Checkout is a mocked checkout session; no payment provider is contacted.
type Checkout struct {
	SessionID string `json:"sessionId"`
	TestMode  bool   `json:"testMode"`
}

type checkoutClaims struct {
	UserID string `json:"uid"`
	jwt.StandardClaims
}

// CreateCheckout issues a signed session id for userID. The payment secret
// key must be configured even though nothing is charged.
func (s *Service) CreateCheckout(ctx context.Context, userID string) (*Checkout, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if s.cfg.SecretKey == "" {
		return nil, apperr.MissingCredential("payment.secret_key")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, checkoutClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        tool.GenerateUUIDV7(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.CheckoutTTL).Unix(),
		},
	})
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign checkout session: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("test checkout created", "user_id", userID)
	return &Checkout{SessionID: sessionPrefix + signed, TestMode: true}, nil
}

func (s *Service) verifyCheckout(sessionID, userID string) error {
	if s.cfg.SecretKey == "" {
		return apperr.MissingCredential("payment.secret_key")
	}
	raw, ok := strings.CutPrefix(sessionID, sessionPrefix)
	if !ok {
		return apperr.Validation("invalid checkout session")
	}
	claims := &checkoutClaims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	}); err != nil {
		return apperr.Validation("invalid checkout session: %v", err)
	}
	if claims.UserID != userID {
		return apperr.Validation("checkout session belongs to another user")
	}
	return nil
}
