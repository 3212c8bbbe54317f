// Package auth issues and verifies session tokens and checks login credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmehdipour/inventory-sim/internal/model"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid authentication token")

// Claims is the payload carried by a session token.
type Claims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// Principal is the verified identity extracted from a token.
type Principal struct {
	CustomerID string
	Tier       model.Tier
	ExpiresAt  time.Time
}

// TokenService signs HS256 tokens with a shared secret. Tokens are never
// stored, so they cannot be revoked before they expire.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: empty token secret")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, Now: time.Now}, nil
}

// Issue returns a signed token for the customer and the moment it expires.
func (s *TokenService) Issue(customerID string, tier model.Tier) (string, time.Time, error) {
	if customerID == "" {
		return "", time.Time{}, errors.New("auth: empty customer id")
	}
	if !tier.Valid() {
		return "", time.Time{}, fmt.Errorf("auth: invalid tier %q", tier)
	}

	now := s.Now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Tier: tier.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry and returns the principal.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(token string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	tier, ok := model.ParseTier(claims.Tier)
	if !ok {
		return Principal{}, fmt.Errorf("%w: unknown tier %q", ErrInvalidToken, claims.Tier)
	}

	return Principal{
		CustomerID: claims.Subject,
		Tier:       tier,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
