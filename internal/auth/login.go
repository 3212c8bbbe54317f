package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the result of a successful login.
type Session struct {
	Token     string
	Tier      model.Tier
	ExpiresAt time.Time
}

// Authenticator validates a customer id + API key pair and issues a token.
type Authenticator struct {
	customers repository.CustomersRepository
	tokens    *TokenService
}

func NewAuthenticator(customers repository.CustomersRepository, tokens *TokenService) *Authenticator {
	return &Authenticator{customers: customers, tokens: tokens}
}

func (a *Authenticator) Login(ctx context.Context, customerID, apiKey string) (Session, error) {
	if customerID == "" || apiKey == "" {
		return Session{}, ErrInvalidCredentials
	}

	cu, err := a.customers.GetByID(ctx, customerID)
	if err != nil {
		return Session{}, fmt.Errorf("lookup customer: %w", err)
	}
	if cu == nil || !cu.Active() {
		return Session{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(cu.APIKey), []byte(apiKey)) != 1 {
		return Session{}, ErrInvalidCredentials
	}

	token, exp, err := a.tokens.Issue(cu.ID, cu.Tier)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Tier: cu.Tier, ExpiresAt: exp}, nil
}
