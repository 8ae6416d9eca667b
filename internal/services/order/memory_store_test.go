package order

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"pos-system/internal/models"
	"pos-system/internal/services/payment"
)

// memStore is an in-memory Store for tests. InTx snapshots the state
// and restores it when the closure fails, mirroring a rolled-back
// database transaction.
type memStore struct {
	mu        sync.Mutex
	customers map[int]models.Customer
	menu      map[int]*models.MenuItem
	methods   map[int]*models.PaymentMethod
	orders    []models.Order
	nextOrder int

	// failDecrementFor simulates another terminal winning the race
	// for the last units between validation and settlement.
	failDecrementFor map[int]bool
	// dropInstrumentAfterAuth makes the post-authorization lookup
	// miss, simulating an inconsistent instrument store.
	dropInstrumentAfterAuth bool
}

func newMemStore() *memStore {
	return &memStore{
		customers:        make(map[int]models.Customer),
		menu:             make(map[int]*models.MenuItem),
		methods:          make(map[int]*models.PaymentMethod),
		nextOrder:        1,
		failDecrementFor: make(map[int]bool),
	}
}

type memCustomers struct{ s *memStore }
type memMenu struct{ s *memStore }

func (s *memStore) Customers() CustomerDirectory         { return memCustomers{s} }
func (s *memStore) Menu() MenuCatalog                    { return memMenu{s} }
func (s *memStore) Inventory() InventoryLedger           { return s }
func (s *memStore) Orders() OrderStore                   { return s }
func (s *memStore) Instruments() payment.InstrumentStore { return s }

func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	snapMenu := make(map[int]*models.MenuItem, len(s.menu))
	for id, item := range s.menu {
		copied := *item
		snapMenu[id] = &copied
	}
	snapMethods := make(map[int]*models.PaymentMethod, len(s.methods))
	for id, pm := range s.methods {
		copied := *pm
		snapMethods[id] = &copied
	}
	snapOrders := make([]models.Order, len(s.orders))
	copy(snapOrders, s.orders)
	snapNext := s.nextOrder
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.menu = snapMenu
		s.methods = snapMethods
		s.orders = snapOrders
		s.nextOrder = snapNext
		s.mu.Unlock()
		return err
	}
	return nil
}

func (c memCustomers) FindByID(ctx context.Context, id int) (*models.Customer, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	customer, ok := c.s.customers[id]
	if !ok {
		return nil, nil
	}
	return &customer, nil
}

func (m memMenu) FindByID(ctx context.Context, id int) (*models.MenuItem, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	item, ok := m.s.menu[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (s *memStore) HasStock(ctx context.Context, itemID, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.menu[itemID]
	return ok && item.Stock >= quantity, nil
}

func (s *memStore) Decrement(ctx context.Context, itemID, quantity int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDecrementFor[itemID] {
		return false, nil
	}
	item, ok := s.menu[itemID]
	if !ok || item.Stock < quantity {
		return false, nil
	}
	item.Stock -= quantity
	return true, nil
}

func (s *memStore) FindByWalletID(ctx context.Context, walletID string) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropInstrumentAfterAuth {
		return nil, nil
	}
	for _, pm := range s.methods {
		if pm.WalletID != nil && *pm.WalletID == walletID {
			copied := *pm
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByCardNumber(ctx context.Context, cardNumber string) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropInstrumentAfterAuth {
		return nil, nil
	}
	for _, pm := range s.methods {
		if pm.CardNumber != nil && *pm.CardNumber == cardNumber {
			copied := *pm
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) AuthenticateByWalletID(ctx context.Context, walletID, secretHash string) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pm := range s.methods {
		if pm.WalletID != nil && *pm.WalletID == walletID && pm.SecretHash == secretHash {
			copied := *pm
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) AuthenticateByCardNumber(ctx context.Context, cardNumber, secretHash string) (*models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pm := range s.methods {
		if pm.CardNumber != nil && *pm.CardNumber == cardNumber && pm.SecretHash == secretHash {
			copied := *pm
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) DebitBalance(ctx context.Context, id int, charge decimal.Decimal) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.methods[id]
	if !ok || pm.Balance.LessThan(charge) {
		return decimal.Zero, false, nil
	}
	pm.Balance = pm.Balance.Sub(charge)
	return pm.Balance, true, nil
}

func (s *memStore) Save(ctx context.Context, o *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextOrder
	s.nextOrder++
	for i := range o.Items {
		o.Items[i].ID = i + 1
		o.Items[i].OrderID = o.ID
	}
	s.orders = append(s.orders, *o)
	return o, nil
}

func (s *memStore) FindByCustomerID(ctx context.Context, customerID int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) FindAll(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// helpers

func (s *memStore) balanceOf(id int) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[id].Balance
}

func (s *memStore) stockOf(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.menu[id].Stock
}
