package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"storefront/models"
	"storefront/repository"
)

// LedgerService answers read-only questions about recorded sales.
type LedgerService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewLedgerService(store repository.Store, logger *slog.Logger) *LedgerService {
	return &LedgerService{store: store, logger: logger}
}

// PurchaseHistory lists the caller's purchases in the order they were made.
func (s *LedgerService) PurchaseHistory(ctx context.Context, id models.Identity) ([]models.SaleRecord, error) {
	acct, err := customerAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListSales(ctx, models.SaleFilter{CustomerID: acct.ID})
}

// SalesHistory lists every sale of the caller's products with the buyer resolved.
func (s *LedgerService) SalesHistory(ctx context.Context, id models.Identity) ([]models.SaleRecord, error) {
	acct, err := shopkeeperAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	return s.store.ListSales(ctx, models.SaleFilter{ShopkeeperID: acct.ID})
}

// ProductCustomers lists who bought one of the caller's products, newest first.
func (s *LedgerService) ProductCustomers(ctx context.Context, id models.Identity, productID string) ([]models.ProductCustomer, error) {
	acct, err := shopkeeperAccount(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListSales(ctx, models.SaleFilter{
		ShopkeeperID: acct.ID,
		ProductID:    productID,
		NewestFirst:  true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ProductCustomer, 0, len(records))
	for _, r := range records {
		out = append(out, models.ProductCustomer{
			CustomerEmail: r.CustomerEmail,
			Quantity:      r.Quantity,
			Total:         r.TotalPrice,
			Date:          r.PurchasedAt,
		})
	}
	return out, nil
}

// Popular ranks catalog products by units sold, best sellers first. Products that
// were deleted since their sales drop out of the ranking.
func (s *LedgerService) Popular(ctx context.Context, limit int) ([]models.PopularItem, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListSales(ctx, models.SaleFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.PopularItem, len(products))
	for _, p := range products {
		byID[p.ID] = &models.PopularItem{
			ProductID: p.ID,
			Name:      p.Name,
			Thumbnail: p.Thumbnail,
			Price:     p.Price,
			Revenue:   decimal.Zero,
		}
	}
	for _, r := range records {
		if item, ok := byID[r.ProductID]; ok {
			item.UnitsSold += r.Quantity
			item.Revenue = item.Revenue.Add(r.TotalPrice)
		}
	}

	out := make([]models.PopularItem, 0, len(byID))
	for _, p := range products {
		if item := byID[p.ID]; item.UnitsSold > 0 {
			out = append(out, *item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnitsSold > out[j].UnitsSold
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
