package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCustomers struct{}

func (failingCustomers) GetByID(context.Context, string) (*model.Customer, error) {
	return nil, errors.New("db down")
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *TokenService) {
	t.Helper()
	customers, err := repository.NewStaticCustomersRepository([]model.Customer{
		{ID: "CUST001", APIKey: "apikey001", Tier: model.TierStandard},
		{ID: "CUST003", APIKey: "apikey003", Tier: model.TierEnterprise},
		{ID: "CUST009", APIKey: "apikey009", Tier: model.TierPremium, Status: model.CustomerSuspended},
	})
	require.NoError(t, err)
	tokens := newTestTokens(t)
	return NewAuthenticator(customers, tokens), tokens
}

func TestAuthenticator_Login(t *testing.T) {
	a, tokens := newTestAuthenticator(t)

	sess, err := a.Login(context.Background(), "CUST003", "apikey003")
	require.NoError(t, err)
	assert.Equal(t, model.TierEnterprise, sess.Tier)

	p, err := tokens.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "CUST003", p.CustomerID)
	assert.Equal(t, model.TierEnterprise, p.Tier)
}

func TestAuthenticator_Login_InvalidCredentials(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	cases := map[string][2]string{
		"unknown customer": {"CUST404", "apikey001"},
		"wrong key":        {"CUST001", "apikey003"},
		"empty key":        {"CUST001", ""},
		"empty id":         {"", "apikey001"},
		"suspended":        {"CUST009", "apikey009"},
	}
	for name, in := range cases {
		_, err := a.Login(ctx, in[0], in[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, name)
	}
}

func TestAuthenticator_Login_RepositoryError(t *testing.T) {
	a := NewAuthenticator(failingCustomers{}, newTestTokens(t))

	_, err := a.Login(context.Background(), "CUST001", "apikey001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
