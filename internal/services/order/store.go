package order

import (
	"context"

	"pos-system/internal/models"
	"pos-system/internal/services/payment"
)

// CustomerDirectory resolves registered customers. FindByID returns
// (nil, nil) when no customer exists with the given id.
type CustomerDirectory interface {
	FindByID(ctx context.Context, id int) (*models.Customer, error)
}

// MenuCatalog resolves menu items by id; (nil, nil) when absent.
type MenuCatalog interface {
	FindByID(ctx context.Context, id int) (*models.MenuItem, error)
}

// InventoryLedger is the stock-count side of the menu. Decrement
// re-checks stock and subtracts in one step; it returns false, not an
// error, when the item is missing or understocked at that moment.
type InventoryLedger interface {
	HasStock(ctx context.Context, itemID, quantity int) (bool, error)
	Decrement(ctx context.Context, itemID, quantity int) (bool, error)
}

// OrderStore persists completed orders. Save returns the stored order
// with its assigned id. The find methods feed reporting.
type OrderStore interface {
	Save(ctx context.Context, o *models.Order) (*models.Order, error)
	FindByCustomerID(ctx context.Context, customerID int) ([]models.Order, error)
	FindAll(ctx context.Context) ([]models.Order, error)
}

// Store aggregates every collaborator the fulfillment flow touches.
// InTx runs fn against a transaction-scoped Store: either everything
// fn did is committed, or none of it is.
type Store interface {
	Customers() CustomerDirectory
	Menu() MenuCatalog
	Inventory() InventoryLedger
	Orders() OrderStore
	Instruments() payment.InstrumentStore
	InTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
