package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/models"
	"storefront/repository"
)

type CatalogService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalogService(store repository.Store, logger *slog.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger, now: time.Now}
}

// ListAll returns every product with its owner's email. Any role may browse.
func (s *CatalogService) ListAll(ctx context.Context, id models.Identity) ([]models.Product, error) {
	if _, err := accountWithRole(ctx, s.store, id, models.RoleShopkeeper, models.RoleCustomer); err != nil {
		return nil, err
	}
	return s.store.ListProducts(ctx)
}

func (s *CatalogService) ListOwn(ctx context.Context, id models.Identity) ([]models.Product, error) {
	acct, err := shopkeeperAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListProductsByOwner(ctx, acct.ID)
}

func (s *CatalogService) Create(ctx context.Context, id models.Identity, req models.CreateProductReq) (*models.Product, error) {
	acct, err := shopkeeperAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Product{
		ID:        uuid.NewString(),
		OwnerID:   acct.ID,
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Stock:     req.Stock,
		Thumbnail: req.Thumbnail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product_created", "product_id", p.ID, "owner_id", acct.ID)
	return p, nil
}

// Update applies patch to a product the caller owns.
func (s *CatalogService) Update(ctx context.Context, id models.Identity, productID string, patch models.ProductPatch) (*models.Product, error) {
	var out *models.Product
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		p, err := s.owned(ctx, tx, id, productID)
		if err != nil {
			return err
		}
		p.Apply(patch)
		p.Name = strings.TrimSpace(p.Name)
		p.UpdatedAt = s.now().UTC()
		if err := validateProduct(p); err != nil {
			return err
		}
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product_updated", "product_id", productID)
	return out, nil
}

// Delete removes a product the caller owns. Carts drop it; recorded sales keep
// their own copy of its name and price.
func (s *CatalogService) Delete(ctx context.Context, id models.Identity, productID string) error {
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		if _, err := s.owned(ctx, tx, id, productID); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, productID)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product_deleted", "product_id", productID)
	return nil
}

func (s *CatalogService) owned(ctx context.Context, tx repository.Store, id models.Identity, productID string) (*models.Product, error) {
	acct, err := shopkeeperAccount(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	p, err := tx.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != acct.ID {
		return nil, fmt.Errorf("%w: you can only change your own products", models.ErrForbidden)
	}
	return p, nil
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return validationError("product name is required")
	case p.Price.IsNegative():
		return validationError("price must not be negative")
	case p.Stock < 0:
		return validationError("stock must not be negative")
	case p.Stock > models.MaxStock:
		return validationError("stock must be at most %d", models.MaxStock)
	}
	return nil
}
