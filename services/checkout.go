package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/config"
	"storefront/metrics"
	"storefront/models"
	"storefront/notify"
	"storefront/repository"
)

// CheckoutService turns purchase requests and carts into sales.
type CheckoutService struct {
	store    repository.Store
	notifier notify.Notifier
	policy   config.CheckoutPolicy
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewCheckoutService(store repository.Store, notifier notify.Notifier, policy config.CheckoutPolicy, m *metrics.Metrics, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:    store,
		notifier: notifier,
		policy:   policy,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Purchase buys quantity units of one product outside the cart.
func (s *CheckoutService) Purchase(ctx context.Context, id models.Identity, productID string, quantity int) (*models.PurchaseResp, error) {
	var sale *models.Sale
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		customer, err := customerAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		sale, err = s.purchaseLine(ctx, tx, customer, productID, quantity)
		return err
	})
	s.metrics.Purchase("direct", outcome(err))
	if err != nil {
		s.logger.InfoContext(ctx, "purchase_rejected", "account_id", id.AccountID, "product_id", productID, "error", err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "purchase_completed", "sale_id", sale.ID, "product_id", productID, "quantity", quantity)
	return &models.PurchaseResp{
		SaleID:      sale.ID,
		ProductName: sale.ProductName,
		Quantity:    sale.Quantity,
		TotalPrice:  sale.TotalPrice,
		PurchasedAt: sale.PurchasedAt,
	}, nil
}

// Checkout converts the caller's cart into sales and bills the customer.
//
// When the sales commit but the bill cannot be delivered, Checkout returns the
// result together with an error wrapping models.ErrBillNotSent.
func (s *CheckoutService) Checkout(ctx context.Context, id models.Identity, comment string) (*models.CheckoutResp, error) {
	var (
		customer *models.Account
		sales    []*models.Sale
		failed   []models.FailedLine
		err      error
	)
	if s.policy == config.BestEffort {
		customer, sales, failed, err = s.checkoutEachLine(ctx, id)
	} else {
		customer, sales, err = s.checkoutAll(ctx, id)
	}
	s.metrics.Purchase("checkout", outcome(err))
	if err != nil {
		s.logger.InfoContext(ctx, "checkout_rejected", "account_id", id.AccountID, "policy", s.policy, "error", err)
		return nil, err
	}

	resp := &models.CheckoutResp{
		Total:   decimal.Zero,
		Bill:    make([]models.BillLine, 0, len(sales)),
		Comment: comment,
		SaleIDs: make([]string, 0, len(sales)),
		Failed:  failed,
	}
	for _, sale := range sales {
		resp.Bill = append(resp.Bill, models.BillLine{Name: sale.ProductName, Price: sale.UnitPrice, Quantity: sale.Quantity})
		resp.SaleIDs = append(resp.SaleIDs, sale.ID)
		resp.Total = resp.Total.Add(sale.TotalPrice)
	}
	s.logger.InfoContext(ctx, "checkout_completed",
		"account_id", customer.ID, "sales", len(sales), "failed", len(failed), "total", resp.Total.String())

	err = s.notifier.SendBill(ctx, notify.Bill{
		To:       customer.Email,
		Items:    resp.Bill,
		Total:    resp.Total,
		Comment:  comment,
		IssuedAt: s.now().UTC(),
	})
	if err != nil {
		s.metrics.Notification("failed")
		s.logger.ErrorContext(ctx, "bill_notification_failed", "account_id", customer.ID, "error", err)
		return resp, fmt.Errorf("%w: %v", models.ErrBillNotSent, err)
	}
	s.metrics.Notification("sent")
	resp.BillSent = true
	return resp, nil
}

// checkoutAll commits every line and the cart clear together, or nothing.
func (s *CheckoutService) checkoutAll(ctx context.Context, id models.Identity) (*models.Account, []*models.Sale, error) {
	var (
		customer *models.Account
		sales    []*models.Sale
	)
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		var err error
		sales = sales[:0]
		if customer, err = customerAccount(ctx, tx, id); err != nil {
			return err
		}
		if len(customer.Cart) == 0 {
			return validationError("cart is empty")
		}
		for _, item := range customer.Cart {
			sale, err := s.purchaseLine(ctx, tx, customer, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			sales = append(sales, sale)
		}
		return tx.SaveCart(ctx, customer.ID, nil)
	})
	if err != nil {
		return nil, nil, err
	}
	return customer, sales, nil
}

// checkoutEachLine commits each cart line in its own transaction. A committed
// line leaves the cart in that same transaction; a failed line stays in the cart
// and is reported. The checkout fails only when no line commits.
func (s *CheckoutService) checkoutEachLine(ctx context.Context, id models.Identity) (*models.Account, []*models.Sale, []models.FailedLine, error) {
	customer, err := customerAccount(ctx, s.store, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(customer.Cart) == 0 {
		return nil, nil, nil, validationError("cart is empty")
	}

	var (
		sales    []*models.Sale
		failed   []models.FailedLine
		firstErr error
	)
	for _, item := range customer.Cart {
		var sale *models.Sale
		err := s.store.RunInTx(ctx, func(tx repository.Store) error {
			current, err := customerAccount(ctx, tx, id)
			if err != nil {
				return err
			}
			if sale, err = s.purchaseLine(ctx, tx, current, item.ProductID, item.Quantity); err != nil {
				return err
			}
			return tx.SaveCart(ctx, current.ID, models.Cart(current.Cart).Remove(item.ProductID))
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			failed = append(failed, models.FailedLine{ProductID: item.ProductID, Reason: s.failureReason(ctx, item.ProductID, err)})
			continue
		}
		sales = append(sales, sale)
	}
	if len(sales) == 0 {
		return nil, nil, nil, firstErr
	}
	return customer, sales, failed, nil
}

// purchaseLine sells one line item inside tx: stock check, guarded decrement,
// then the sale row, which is what links the sale to both accounts.
func (s *CheckoutService) purchaseLine(ctx context.Context, tx repository.Store, customer *models.Account, productID string, quantity int) (*models.Sale, error) {
	if quantity < 1 || quantity > models.MaxQuantity {
		return nil, validationError("quantity must be between 1 and %d", models.MaxQuantity)
	}
	product, err := tx.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("%w for %s: requested %d, available %d",
			models.ErrInsufficientStock, product.Name, quantity, product.Stock)
	}

	// the unit price is the one in effect when the stock is taken
	product, err = tx.DecrementStock(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w for %s", models.ErrInsufficientStock, productID)
		}
		return nil, err
	}

	sale := &models.Sale{
		ID:           uuid.NewString(),
		ProductID:    product.ID,
		ProductName:  product.Name,
		UnitPrice:    product.Price,
		CustomerID:   customer.ID,
		ShopkeeperID: product.OwnerID,
		Quantity:     quantity,
		TotalPrice:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		PurchasedAt:  s.now().UTC(),
	}
	if err := tx.CreateSale(ctx, sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// failureReason is the client-facing text for a failed line. Errors outside the
// domain taxonomy are logged and replaced with a generic reason.
func (s *CheckoutService) failureReason(ctx context.Context, productID string, err error) string {
	for _, known := range []error{
		models.ErrInsufficientStock, models.ErrNotFound, models.ErrForbidden,
		models.ErrValidation, models.ErrConflict,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	s.logger.ErrorContext(ctx, "checkout_line_failed", "product_id", productID, "error", err)
	return "internal error"
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
