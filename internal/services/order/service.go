package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pos-system/internal/logger"
	"pos-system/internal/metrics"
	"pos-system/internal/models"
	"pos-system/internal/services/payment"
)

// EventPublisher announces committed orders to downstream consumers.
type EventPublisher interface {
	PublishOrderCompleted(ctx context.Context, msg *models.OrderCompletedMessage) error
}

// Service is the order fulfillment orchestrator. It turns a cart of
// requested lines plus a payment instrument into a durable, paid,
// stock-adjusted order, or rejects the whole request with a domain
// error and no side effects.
type Service struct {
	store      Store
	authorizer *payment.Authorizer
	publisher  EventPublisher
	metrics    *metrics.Metrics
	logger     *logger.Logger
	maxQty     int
}

// NewService creates the fulfillment service. publisher and m may be
// nil; maxItemQuantity is the per-line quantity cap.
func NewService(store Store, authorizer *payment.Authorizer, publisher EventPublisher, m *metrics.Metrics, log *logger.Logger, maxItemQuantity int) *Service {
	return &Service{
		store:      store,
		authorizer: authorizer,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
		maxQty:     maxItemQuantity,
	}
}

// CreateOrder validates the customer and every requested line against
// the authoritative menu, then settles payment, decrements stock and
// persists the order inside a single transaction. Validation failures
// abort before any state is touched; a failure inside the transaction
// rolls back the debit and any decrements already applied.
func (s *Service) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, requestID string) (*models.Order, error) {
	customer, err := s.store.Customers().FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("look up customer %d: %w", req.CustomerID, err)
	}
	if customer == nil {
		s.countRejection(ErrCustomerNotFound)
		return nil, fmt.Errorf("%w: id %d", ErrCustomerNotFound, req.CustomerID)
	}

	if len(req.Items) == 0 {
		s.countRejection(ErrEmptyOrder)
		return nil, ErrEmptyOrder
	}

	confirmed, total, err := s.priceLines(ctx, req.Items)
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	var stored *models.Order
	txErr := s.store.InTx(ctx, func(tx Store) error {
		record, err := s.authorizer.AuthorizeAndDebit(ctx, tx.Instruments(), req.PaymentType, req.CredentialID, req.CredentialSecret, total)
		if err != nil {
			if errors.Is(err, payment.ErrUnsupportedPaymentType) || errors.Is(err, payment.ErrPersistenceFailed) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}

		// Re-resolve the instrument for attachment to the order. A
		// miss here means the store and the authorizer disagree.
		resolved, err := s.resolveInstrument(ctx, tx, record)
		if err != nil {
			return err
		}

		for _, line := range confirmed {
			ok, err := tx.Inventory().Decrement(ctx, line.MenuItemID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for item %d: %w", line.MenuItemID, err)
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrStockUpdateFailed, line.Name)
			}
		}

		stored, err = tx.Orders().Save(ctx, &models.Order{
			CustomerID:      customer.ID,
			PaymentMethodID: resolved.ID,
			Items:           confirmed,
			Total:           total,
			Status:          models.StatusCompleted,
		})
		if err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		return nil
	})
	if txErr != nil {
		s.countRejection(txErr)
		if !isDomainError(txErr) {
			// A fault after the debit would have meant money moved
			// without a matching order; the rollback prevents that,
			// but it still deserves a loud log line.
			s.logger.Error("settlement_aborted", "Order transaction rolled back", requestID, txErr, map[string]interface{}{
				"customer_id": req.CustomerID,
				"total":       total.String(),
			})
		}
		return nil, txErr
	}

	if s.metrics != nil {
		s.metrics.OrdersCompleted.Inc()
	}

	s.logger.Info("order_completed", "Order fulfilled and settled", requestID, map[string]interface{}{
		"order_id":    stored.ID,
		"customer_id": customer.ID,
		"total":       stored.Total.String(),
		"items":       len(stored.Items),
	})

	s.announce(ctx, requestID, customer, stored, req.PaymentType)

	return stored, nil
}

// priceLines validates every requested line and recomputes its
// subtotal from the stored menu price. The caller-claimed subtotal
// must match the recomputed one exactly after rounding to 2 decimal
// places. Rounded line subtotals are summed and the total rounded
// once at the end.
func (s *Service) priceLines(ctx context.Context, lines []*models.RequestedLine) ([]models.OrderItem, decimal.Decimal, error) {
	confirmed := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero

	for i, line := range lines {
		if line == nil || line.MenuItemID <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d", ErrInvalidLine, i)
		}
		if line.Quantity <= 0 || line.Quantity > s.maxQty {
			return nil, decimal.Zero, fmt.Errorf("%w: line %d quantity %d (allowed 1-%d)", ErrInvalidQuantity, i, line.Quantity, s.maxQty)
		}

		item, err := s.store.Menu().FindByID(ctx, line.MenuItemID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("look up menu item %d: %w", line.MenuItemID, err)
		}
		if item == nil {
			return nil, decimal.Zero, fmt.Errorf("%w: id %d", ErrItemNotFound, line.MenuItemID)
		}

		// Advisory availability check; the settlement transaction
		// re-checks when it decrements.
		inStock, err := s.store.Inventory().HasStock(ctx, item.ID, line.Quantity)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("check stock for item %d: %w", item.ID, err)
		}
		if !inStock {
			return nil, decimal.Zero, fmt.Errorf("%w: %s has %d left, %d requested", ErrInsufficientStock, item.Name, item.Stock, line.Quantity)
		}

		expected := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		if !expected.Equal(line.Subtotal.Round(2)) {
			return nil, decimal.Zero, fmt.Errorf("%w: %s x%d costs %s, claimed %s", ErrPriceMismatch, item.Name, line.Quantity, expected, line.Subtotal)
		}

		total = total.Add(expected)
		confirmed = append(confirmed, models.OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
			Subtotal:   expected,
		})
	}

	return confirmed, total.Round(2), nil
}

// resolveInstrument looks the authenticated instrument back up by its
// public identifier so the order can reference it.
func (s *Service) resolveInstrument(ctx context.Context, tx Store, record *models.PaymentMethod) (*models.PaymentMethod, error) {
	var (
		resolved *models.PaymentMethod
		err      error
	)
	switch {
	case record.Type == models.PaymentBank && record.CardNumber != nil:
		resolved, err = tx.Instruments().FindByCardNumber(ctx, *record.CardNumber)
	case record.WalletID != nil:
		resolved, err = tx.Instruments().FindByWalletID(ctx, *record.WalletID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve payment method: %w", err)
	}
	if resolved == nil {
		return nil, ErrPaymentMethodNotFound
	}
	return resolved, nil
}

// announce publishes the order-completed event. Publishing is best
// effort: the order is already committed, so a broker outage only
// costs the notification.
func (s *Service) announce(ctx context.Context, requestID string, customer *models.Customer, stored *models.Order, paymentType string) {
	if s.publisher == nil {
		return
	}

	parsed, err := payment.ParseType(paymentType)
	if err != nil {
		parsed = models.PaymentType(paymentType)
	}

	msg := &models.OrderCompletedMessage{
		OrderID:      stored.ID,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Total:        stored.Total,
		PaymentType:  parsed,
		Timestamp:    time.Now().UTC(),
	}
	if err := s.publisher.PublishOrderCompleted(ctx, msg); err != nil {
		s.logger.Error("receipt_publish_failed", "Failed to publish order completed event", requestID, err, map[string]interface{}{
			"order_id": stored.ID,
		})
	}
}

// ListOrders returns all persisted orders for reporting.
func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.Orders().FindAll(ctx)
}

// ListOrdersByCustomer returns one customer's order history.
func (s *Service) ListOrdersByCustomer(ctx context.Context, customerID int) ([]models.Order, error) {
	return s.store.Orders().FindByCustomerID(ctx, customerID)
}

// HealthCheck reports whether the backing store is reachable.
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.store.Ping(ctx) == nil
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.OrdersRejected.WithLabelValues(rejectionReason(err)).Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, ErrEmptyOrder):
		return "empty_order"
	case errors.Is(err, ErrInvalidLine):
		return "invalid_line"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPriceMismatch):
		return "price_mismatch"
	case errors.Is(err, ErrPaymentFailed):
		return "payment_failed"
	case errors.Is(err, ErrPaymentMethodNotFound):
		return "payment_method_not_found"
	case errors.Is(err, ErrStockUpdateFailed):
		return "stock_update_failed"
	case errors.Is(err, payment.ErrUnsupportedPaymentType):
		return "unsupported_payment_type"
	default:
		return "fault"
	}
}

func isDomainError(err error) bool {
	return rejectionReason(err) != "fault"
}
