package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-system/internal/logger"
	"pos-system/internal/models"
	"pos-system/internal/services/payment"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

// seededStore returns a store with customer 1000, menu item 2000
// (10.50, stock 50) and wallet TNG001 (TNG, secret tng123, 100.00).
func seededStore() *memStore {
	s := newMemStore()
	s.customers[1000] = models.Customer{ID: 1000, Name: "Alice Tan", Age: 28, Phone: "012-3456789", Gender: "F"}
	s.menu[2000] = &models.MenuItem{ID: 2000, Name: "Nasi Lemak Set", Price: dec("10.50"), Category: models.CategorySet, Stock: 50}
	s.methods[1] = &models.PaymentMethod{
		ID:         1,
		Type:       models.PaymentTNG,
		WalletID:   strPtr("TNG001"),
		SecretHash: payment.HashSecret("tng123"),
		Balance:    dec("100.00"),
	}
	return s
}

func newTestService(s *memStore) *Service {
	return NewService(s, payment.NewAuthorizer(dec("1.00")), nil, nil, logger.New("test"), 100)
}

func walletRequest(items ...*models.RequestedLine) *models.CreateOrderRequest {
	return &models.CreateOrderRequest{
		CustomerID:       1000,
		PaymentType:      "TNG",
		CredentialID:     "TNG001",
		CredentialSecret: "tng123",
		Items:            items,
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	stored, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.True(t, stored.Total.Equal(dec("21.00")), "total = %s", stored.Total)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].Subtotal.Equal(dec("21.00")))
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("10.50")))
	assert.NotZero(t, stored.ID)

	assert.True(t, store.balanceOf(1).Equal(dec("79.00")), "balance = %s", store.balanceOf(1))
	assert.Equal(t, 48, store.stockOf(2000))
}

func TestCreateOrder_TotalEqualsSumOfSubtotals(t *testing.T) {
	store := seededStore()
	store.menu[2001] = &models.MenuItem{ID: 2001, Name: "Teh Tarik", Price: dec("3.20"), Category: models.CategoryALaCarte, Stock: 80}
	svc := newTestService(store)

	stored, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 3, Subtotal: dec("31.50")},
		&models.RequestedLine{MenuItemID: 2001, Quantity: 5, Subtotal: dec("16.00")},
	), "req-1")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range stored.Items {
		sum = sum.Add(item.Subtotal)
	}
	assert.True(t, stored.Total.Equal(sum.Round(2)), "total %s != sum %s", stored.Total, sum)
	assert.True(t, stored.Total.Equal(dec("47.50")))
}

func TestCreateOrder_RoundsHalfUp(t *testing.T) {
	store := seededStore()
	store.menu[2002] = &models.MenuItem{ID: 2002, Name: "Sambal Extra", Price: dec("1.115"), Category: models.CategoryALaCarte, Stock: 10}
	svc := newTestService(store)

	stored, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2002, Quantity: 1, Subtotal: dec("1.12")},
	), "req-1")
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(dec("1.12")))
}

func TestCreateOrder_CustomerNotFound(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	req := walletRequest(&models.RequestedLine{MenuItemID: 2000, Quantity: 1, Subtotal: dec("10.50")})
	req.CustomerID = 9999
	_, err := svc.CreateOrder(context.Background(), req, "req-1")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCreateOrder_EmptyOrder(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(), "req-1")
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCreateOrder_InvalidLine(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(nil), "req-1")
	assert.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 0, Quantity: 1, Subtotal: dec("10.50")},
	), "req-1")
	assert.ErrorIs(t, err, ErrInvalidLine)
}

func TestCreateOrder_QuantityBounds(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  bool
	}{
		{"zero rejected", 0, true},
		{"negative rejected", -1, true},
		{"over cap rejected", 101, true},
		{"one accepted", 1, false},
		{"cap accepted", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore()
			store.menu[2000].Stock = 100
			store.methods[1].Balance = dec("2000.00")
			svc := newTestService(store)

			subtotal := dec("10.50").Mul(decimal.NewFromInt(int64(tt.quantity))).Round(2)
			_, err := svc.CreateOrder(context.Background(), walletRequest(
				&models.RequestedLine{MenuItemID: 2000, Quantity: tt.quantity, Subtotal: subtotal},
			), "req-1")

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuantity)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateOrder_ItemNotFound(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 4242, Quantity: 1, Subtotal: dec("10.50")},
	), "req-1")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	store := seededStore()
	store.menu[2000].Stock = 1
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Nasi Lemak Set")
	assert.Contains(t, err.Error(), "1")
	assert.Contains(t, err.Error(), "2")

	// No side effects before payment.
	assert.True(t, store.balanceOf(1).Equal(dec("100.00")))
	assert.Equal(t, 1, store.stockOf(2000))
}

func TestCreateOrder_StockExactBoundary(t *testing.T) {
	store := seededStore()
	store.menu[2000].Stock = 2
	svc := newTestService(store)

	// Requesting exactly the remaining units passes the availability
	// check and drains the item to zero.
	stored, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 0, store.stockOf(2000))
}

func TestCreateOrder_PriceMismatch(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	// A generous claim is still a mismatch.
	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("100.00")},
	), "req-1")
	require.ErrorIs(t, err, ErrPriceMismatch)

	assert.True(t, store.balanceOf(1).Equal(dec("100.00")))
	assert.Equal(t, 50, store.stockOf(2000))
}

func TestCreateOrder_BadCredential(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	req := walletRequest(&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")})
	req.CredentialSecret = "wrongpass"
	_, err := svc.CreateOrder(context.Background(), req, "req-1")
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.ErrorIs(t, err, payment.ErrInvalidCredential)

	assert.True(t, store.balanceOf(1).Equal(dec("100.00")))
	assert.Equal(t, 50, store.stockOf(2000))
}

func TestCreateOrder_InsufficientFunds(t *testing.T) {
	store := seededStore()
	store.methods[1].Balance = dec("20.00")
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.ErrorIs(t, err, payment.ErrInsufficientFunds)

	assert.True(t, store.balanceOf(1).Equal(dec("20.00")))
	assert.Equal(t, 50, store.stockOf(2000))
}

func TestCreateOrder_UnsupportedPaymentType(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)

	req := walletRequest(&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")})
	req.PaymentType = "Visa"
	_, err := svc.CreateOrder(context.Background(), req, "req-1")
	assert.ErrorIs(t, err, payment.ErrUnsupportedPaymentType)
	assert.NotErrorIs(t, err, ErrPaymentFailed)
}

func TestCreateOrder_PaymentMethodNotFound(t *testing.T) {
	store := seededStore()
	store.dropInstrumentAfterAuth = true
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.ErrorIs(t, err, ErrPaymentMethodNotFound)

	// The debit inside the failed transaction is rolled back.
	assert.True(t, store.balanceOf(1).Equal(dec("100.00")))
}

func TestCreateOrder_StockRaceRollsBackDebit(t *testing.T) {
	store := seededStore()
	store.failDecrementFor[2000] = true
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
	), "req-1")
	require.ErrorIs(t, err, ErrStockUpdateFailed)
	assert.Contains(t, err.Error(), "Nasi Lemak Set")

	assert.True(t, store.balanceOf(1).Equal(dec("100.00")), "debit must roll back with the failed decrement")
	assert.Equal(t, 50, store.stockOf(2000))
	orders, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrder_PartialDecrementRollsBack(t *testing.T) {
	store := seededStore()
	store.menu[2001] = &models.MenuItem{ID: 2001, Name: "Teh Tarik", Price: dec("3.20"), Category: models.CategoryALaCarte, Stock: 80}
	store.failDecrementFor[2001] = true
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
		&models.RequestedLine{MenuItemID: 2001, Quantity: 1, Subtotal: dec("3.20")},
	), "req-1")
	require.ErrorIs(t, err, ErrStockUpdateFailed)

	// The first line's decrement is undone along with the debit.
	assert.Equal(t, 50, store.stockOf(2000))
	assert.Equal(t, 80, store.stockOf(2001))
	assert.True(t, store.balanceOf(1).Equal(dec("100.00")))
}

func TestCreateOrder_BankCardFee(t *testing.T) {
	store := seededStore()
	store.menu[3000] = &models.MenuItem{ID: 3000, Name: "Banquet Set", Price: dec("49.00"), Category: models.CategorySet, Stock: 10}
	store.methods[2] = &models.PaymentMethod{
		ID:         2,
		Type:       models.PaymentBank,
		CardNumber: strPtr("4556-7375-8689-9855"),
		CardExpiry: strPtr("12/27"),
		SecretHash: payment.HashSecret("bank123"),
		Balance:    dec("50.00"),
	}
	svc := newTestService(store)

	req := &models.CreateOrderRequest{
		CustomerID:       1000,
		PaymentType:      "Bank",
		CredentialID:     "4556-7375-8689-9855",
		CredentialSecret: "bank123",
		Items: []*models.RequestedLine{
			{MenuItemID: 3000, Quantity: 1, Subtotal: dec("49.00")},
		},
	}
	stored, err := svc.CreateOrder(context.Background(), req, "req-1")
	require.NoError(t, err)

	// 49.00 charge + 1.00 fee drains the card exactly.
	assert.True(t, store.balanceOf(2).Equal(dec("0.00")), "balance = %s", store.balanceOf(2))
	assert.True(t, stored.Total.Equal(dec("49.00")))
}

func TestCreateOrder_StockNonNegativeAcrossOrders(t *testing.T) {
	store := seededStore()
	store.menu[2000].Stock = 5
	store.methods[1].Balance = dec("1000.00")
	svc := newTestService(store)

	placed := 0
	for i := 0; i < 4; i++ {
		_, err := svc.CreateOrder(context.Background(), walletRequest(
			&models.RequestedLine{MenuItemID: 2000, Quantity: 2, Subtotal: dec("21.00")},
		), "req-1")
		if err == nil {
			placed++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}

	assert.Equal(t, 2, placed)
	assert.Equal(t, 1, store.stockOf(2000))
	assert.GreaterOrEqual(t, store.stockOf(2000), 0)
}

func TestListOrders(t *testing.T) {
	store := seededStore()
	store.customers[1001] = models.Customer{ID: 1001, Name: "Bob Lim"}
	svc := newTestService(store)

	_, err := svc.CreateOrder(context.Background(), walletRequest(
		&models.RequestedLine{MenuItemID: 2000, Quantity: 1, Subtotal: dec("10.50")},
	), "req-1")
	require.NoError(t, err)

	all, err := svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := svc.ListOrdersByCustomer(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := svc.ListOrdersByCustomer(context.Background(), 1001)
	require.NoError(t, err)
	assert.Empty(t, none)
}
