package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"pos-system/internal/database"
	"pos-system/internal/models"
	"pos-system/internal/services/payment"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx,
// so the same store code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store over PostgreSQL. Money columns are
// NUMERIC and travel as text between Go and the database.
type PostgresStore struct {
	db *database.DB
	q  querier
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db.Pool}
}

// pgCustomers and pgMenu keep the two FindByID signatures apart.
type pgCustomers struct{ s *PostgresStore }
type pgMenu struct{ s *PostgresStore }

func (c pgCustomers) FindByID(ctx context.Context, id int) (*models.Customer, error) {
	return c.s.CustomerByID(ctx, id)
}

func (m pgMenu) FindByID(ctx context.Context, id int) (*models.MenuItem, error) {
	return m.s.MenuItemByID(ctx, id)
}

func (s *PostgresStore) Customers() CustomerDirectory         { return pgCustomers{s} }
func (s *PostgresStore) Menu() MenuCatalog                    { return pgMenu{s} }
func (s *PostgresStore) Inventory() InventoryLedger           { return s }
func (s *PostgresStore) Orders() OrderStore                   { return s }
func (s *PostgresStore) Instruments() payment.InstrumentStore { return s }

// InTx runs fn against a transaction-scoped copy of the store. The
// transaction commits only if fn returns nil. Calling InTx on an
// already transaction-scoped store reuses the open transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresStore{db: s.db, q: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Ping tests the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CustomerByID resolves a customer by id
func (s *PostgresStore) CustomerByID(ctx context.Context, id int) (*models.Customer, error) {
	var c models.Customer
	err := s.q.QueryRow(ctx, database.GetCustomerByIDSQL, id).
		Scan(&c.ID, &c.Name, &c.Age, &c.Phone, &c.Gender)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// MenuItemByID resolves a menu item by id
func (s *PostgresStore) MenuItemByID(ctx context.Context, id int) (*models.MenuItem, error) {
	var (
		item  models.MenuItem
		price string
	)
	err := s.q.QueryRow(ctx, database.GetMenuItemByIDSQL, id).
		Scan(&item.ID, &item.Name, &price, &item.Category, &item.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price for menu item %d: %w", id, err)
	}
	return &item, nil
}

// HasStock reports whether the item currently has at least quantity units
func (s *PostgresStore) HasStock(ctx context.Context, itemID, quantity int) (bool, error) {
	var ok bool
	err := s.q.QueryRow(ctx, database.HasStockSQL, itemID, quantity).Scan(&ok)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Decrement subtracts quantity from the item's stock in a single
// conditional update; the check and the subtraction cannot interleave
// with another writer.
func (s *PostgresStore) Decrement(ctx context.Context, itemID, quantity int) (bool, error) {
	tag, err := s.q.Exec(ctx, database.DecrementStockSQL, itemID, quantity)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// FindByWalletID resolves a payment method by wallet identifier
func (s *PostgresStore) FindByWalletID(ctx context.Context, walletID string) (*models.PaymentMethod, error) {
	return s.scanPaymentMethod(s.q.QueryRow(ctx, database.GetPaymentMethodByWalletSQL, walletID))
}

// FindByCardNumber resolves a payment method by card number
func (s *PostgresStore) FindByCardNumber(ctx context.Context, cardNumber string) (*models.PaymentMethod, error) {
	return s.scanPaymentMethod(s.q.QueryRow(ctx, database.GetPaymentMethodByCardSQL, cardNumber))
}

// AuthenticateByWalletID resolves a wallet only when both identifier
// and secret digest match exactly
func (s *PostgresStore) AuthenticateByWalletID(ctx context.Context, walletID, secretHash string) (*models.PaymentMethod, error) {
	return s.scanPaymentMethod(s.q.QueryRow(ctx, database.AuthPaymentMethodByWalletSQL, walletID, secretHash))
}

// AuthenticateByCardNumber resolves a card only when both number and
// secret digest match exactly
func (s *PostgresStore) AuthenticateByCardNumber(ctx context.Context, cardNumber, secretHash string) (*models.PaymentMethod, error) {
	return s.scanPaymentMethod(s.q.QueryRow(ctx, database.AuthPaymentMethodByCardSQL, cardNumber, secretHash))
}

// DebitBalance subtracts charge from the stored balance in a single
// conditional update, the same way Decrement handles stock. A stale
// balance read cannot lose a concurrent debit: the subtraction is
// relative and re-checked against the current row. Returns false when
// the balance no longer covers the charge.
func (s *PostgresStore) DebitBalance(ctx context.Context, id int, charge decimal.Decimal) (decimal.Decimal, bool, error) {
	var balance string
	err := s.q.QueryRow(ctx, database.DebitBalanceSQL, id, charge.String()).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	newBalance, err := decimal.NewFromString(balance)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse balance for payment method %d: %w", id, err)
	}
	return newBalance, true, nil
}

func (s *PostgresStore) scanPaymentMethod(row pgx.Row) (*models.PaymentMethod, error) {
	var (
		pm      models.PaymentMethod
		balance string
	)
	err := row.Scan(&pm.ID, &pm.Type, &pm.WalletID, &pm.CardNumber, &pm.CardExpiry, &pm.SecretHash, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if pm.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance for payment method %d: %w", pm.ID, err)
	}
	return &pm, nil
}

// Save persists an order and its line items, returning the order with
// assigned ids and timestamp
func (s *PostgresStore) Save(ctx context.Context, o *models.Order) (*models.Order, error) {
	err := s.q.QueryRow(ctx, database.InsertOrderSQL,
		o.CustomerID, o.PaymentMethodID, o.Total.String(), string(o.Status)).
		Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := s.q.QueryRow(ctx, database.InsertOrderItemSQL,
			o.ID, item.MenuItemID, item.Name, item.Quantity,
			item.UnitPrice.String(), item.Subtotal.String()).
			Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("insert order item %d: %w", item.MenuItemID, err)
		}
	}

	return o, nil
}

// FindByCustomerID returns one customer's orders with their items
func (s *PostgresStore) FindByCustomerID(ctx context.Context, customerID int) ([]models.Order, error) {
	rows, err := s.q.Query(ctx, database.GetOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

// FindAll returns every persisted order with its items
func (s *PostgresStore) FindAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.q.Query(ctx, database.GetAllOrdersSQL)
	if err != nil {
		return nil, err
	}
	return s.collectOrders(ctx, rows)
}

func (s *PostgresStore) collectOrders(ctx context.Context, rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o     models.Order
			total string
		)
		if err := rows.Scan(&o.ID, &o.CreatedAt, &o.CustomerID, &o.PaymentMethodID, &total, &o.Status); err != nil {
			return nil, err
		}
		var err error
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total for order %d: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (s *PostgresStore) orderItems(ctx context.Context, orderID int) ([]models.OrderItem, error) {
	rows, err := s.q.Query(ctx, database.GetOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var (
			item      models.OrderItem
			unitPrice string
			subtotal  string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &item.Quantity, &unitPrice, &subtotal); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit price for order item %d: %w", item.ID, err)
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("parse subtotal for order item %d: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
