package query

import (
	"context"
	"errors"

	"github.com/jmehdipour/inventory-sim/internal/inventory"
	"github.com/jmehdipour/inventory-sim/internal/model"
	"github.com/jmehdipour/inventory-sim/internal/tier"
)

// Store is the part of inventory.Store the service reads from.
type Store interface {
	GetByID(ctx context.Context, itemID string) (model.InventoryItem, error)
	List(ctx context.Context, page, limit int, withTotal bool) (inventory.Page, error)
}

// Request selects one item (ItemID set) or a page of items.
type Request struct {
	ItemID string
	Page   int
	Limit  int
}

// Response is the inventory payload. Page and Limit are set for list
// requests; Total and Pages only for the top tier.
type Response struct {
	Items []model.InventoryItem `json:"items"`
	Page  int                   `json:"page,omitempty"`
	Limit int                   `json:"limit,omitempty"`
	Total *int64                `json:"total,omitempty"`
	Pages *int64                `json:"pages,omitempty"`
}

// Service fetches inventory and shapes the response by caller tier.
type Service struct {
	store Store
	tiers *tier.Registry
}

func New(store Store, tiers *tier.Registry) *Service {
	return &Service{store: store, tiers: tiers}
}

// Fetch runs the lookup. A missing item is an empty result, not an error;
// store errors (pool exhaustion, storage failures) are returned unchanged.
func (s *Service) Fetch(ctx context.Context, t model.Tier, req Request) (Response, error) {
	if req.ItemID != "" {
		it, err := s.store.GetByID(ctx, req.ItemID)
		if errors.Is(err, model.ErrNotFound) {
			return Response{Items: []model.InventoryItem{}}, nil
		}
		if err != nil {
			return Response{}, err
		}
		return Response{Items: []model.InventoryItem{it}}, nil
	}

	rich := s.tiers.IsTop(t)
	page, err := s.store.List(ctx, req.Page, req.Limit, rich)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Items: page.Items,
		Page:  req.Page,
		Limit: req.Limit,
	}
	if resp.Items == nil {
		resp.Items = []model.InventoryItem{}
	}
	if rich && page.Total != nil {
		pages := (*page.Total + int64(req.Limit) - 1) / int64(req.Limit)
		resp.Total = page.Total
		resp.Pages = &pages
	}
	return resp, nil
}
