package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	return s
}

func TestTokenService_RoundTrip(t *testing.T) {
	s := newTestTokens(t)

	for _, tier := range []model.Tier{model.TierStandard, model.TierPremium, model.TierEnterprise} {
		token, exp, err := s.Issue("CUST042", tier)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 2*time.Second)

		p, err := s.Verify(token)
		require.NoError(t, err, tier)
		assert.Equal(t, "CUST042", p.CustomerID)
		assert.Equal(t, tier, p.Tier)
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	s, err := NewTokenService("x", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, s.ttl)

	_, err = NewTokenService("", time.Hour)
	assert.Error(t, err)
}

func TestTokenService_Issue_RejectsInvalidInput(t *testing.T) {
	s := newTestTokens(t)

	_, _, err := s.Issue("", model.TierStandard)
	assert.Error(t, err)
	_, _, err = s.Issue("CUST001", "gold")
	assert.Error(t, err)
}

func TestTokenService_Verify_Expired(t *testing.T) {
	s := newTestTokens(t)
	s.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := s.Issue("CUST001", model.TierStandard)
	require.NoError(t, err)

	s.Now = time.Now
	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_TamperedPayload(t *testing.T) {
	s := newTestTokens(t)
	token, _, err := s.Issue("CUST001", model.TierStandard)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), `"tier":"standard"`, `"tier":"enterprise"`, 1)
	require.NotEqual(t, string(payload), forged)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	_, err = s.Verify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	token, _, err := newTestTokens(t).Issue("CUST001", model.TierPremium)
	require.NoError(t, err)

	other, err := NewTokenService("another-secret", time.Hour)
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_Malformed(t *testing.T) {
	s := newTestTokens(t)
	for _, tok := range []string{"", "abc", "a.b.c", "Bearer x.y.z"} {
		_, err := s.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, tok)
	}
}

func TestTokenService_Verify_RejectsNoneAlgorithm(t *testing.T) {
	s := newTestTokens(t)
	claims := Claims{
		Tier: "enterprise",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "CUST003",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Verify_RejectsUnknownTier(t *testing.T) {
	s := newTestTokens(t)
	claims := Claims{
		Tier: "gold",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "CUST001",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
