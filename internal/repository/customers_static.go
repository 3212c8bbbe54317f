package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/inventory-sim/internal/model"
)

// StaticCustomersRepository serves customers defined in configuration.
type StaticCustomersRepository struct {
	byID map[string]model.Customer
}

var _ CustomersRepository = (*StaticCustomersRepository)(nil)

func NewStaticCustomersRepository(customers []model.Customer) (*StaticCustomersRepository, error) {
	byID := make(map[string]model.Customer, len(customers))
	for _, c := range customers {
		if c.ID == "" || c.APIKey == "" {
			return nil, fmt.Errorf("customer %q: id and api key are required", c.ID)
		}
		if !c.Tier.Valid() {
			return nil, fmt.Errorf("customer %q: invalid tier %q", c.ID, c.Tier)
		}
		if _, dup := byID[c.ID]; dup {
			return nil, fmt.Errorf("customer %q: defined twice", c.ID)
		}
		byID[c.ID] = c
	}
	return &StaticCustomersRepository{byID: byID}, nil
}

func (r *StaticCustomersRepository) GetByID(_ context.Context, customerID string) (*model.Customer, error) {
	c, ok := r.byID[customerID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
