package cart

import (
	"context"
	"fmt"

	"github.com/example/scaffold-shop/internal/catalog"
)

// Service applies cart operations for a session and keeps the repository as
// the single source of truth: every mutation is read-modify-write on the
// whole cart.
type Service struct {
	repo    Repository
	catalog *catalog.Catalog
}

func NewService(repo Repository, cat *catalog.Catalog) *Service {
	return &Service{repo: repo, catalog: cat}
}

// Get returns the session's cart.
func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return s.repo.Get(ctx, sessionID)
}

// AddItem derives the price per unit from the catalog for the chosen unit and
// adds the line, merging by product id.
func (s *Service) AddItem(ctx context.Context, sessionID string, productID int, weight float64, unit catalog.Unit) (*Cart, error) {
	product, err := s.catalog.GetByID(productID)
	if err != nil {
		return nil, err
	}
	price, err := product.PriceFor(unit)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	item := Item{
		ProductID:    product.ID,
		Name:         product.Name,
		Weight:       weight,
		Unit:         unit,
		PricePerUnit: price,
		Image:        product.Image,
	}
	if err := c.Add(item); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// RemoveItem removes all lines for the product id.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID int) (*Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(productID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// UpdateWeight changes the weight of the line at index.
func (s *Service) UpdateWeight(ctx context.Context, sessionID string, index int, weight float64) (*Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateWeight(index, weight); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// UpdateUnit switches the line at index to the new unit, re-deriving the
// price from the catalog.
func (s *Service) UpdateUnit(ctx context.Context, sessionID string, index int, unit catalog.Unit) (*Cart, error) {
	c, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateUnit(index, unit, s.catalog); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, c); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Clear empties the session's cart.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.repo.Clear(ctx, sessionID)
}
