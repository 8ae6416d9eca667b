package database

// Customer queries
const (
	GetCustomerByIDSQL = `
		SELECT id, name, age, phone, gender
		FROM customers WHERE id = $1`
)

// Menu queries. Prices come back as text so money never passes
// through a float.
const (
	GetMenuItemByIDSQL = `
		SELECT id, name, price::text, category, stock
		FROM menu_items WHERE id = $1`

	HasStockSQL = `
		SELECT stock >= $2 FROM menu_items WHERE id = $1`

	DecrementStockSQL = `
		UPDATE menu_items SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`
)

// Payment method queries
const (
	GetPaymentMethodByWalletSQL = `
		SELECT id, type, wallet_id, card_number, card_expiry, secret_hash, balance::text
		FROM payment_methods WHERE wallet_id = $1`

	GetPaymentMethodByCardSQL = `
		SELECT id, type, wallet_id, card_number, card_expiry, secret_hash, balance::text
		FROM payment_methods WHERE card_number = $1`

	AuthPaymentMethodByWalletSQL = `
		SELECT id, type, wallet_id, card_number, card_expiry, secret_hash, balance::text
		FROM payment_methods WHERE wallet_id = $1 AND secret_hash = $2`

	AuthPaymentMethodByCardSQL = `
		SELECT id, type, wallet_id, card_number, card_expiry, secret_hash, balance::text
		FROM payment_methods WHERE card_number = $1 AND secret_hash = $2`

	DebitBalanceSQL = `
		UPDATE payment_methods SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance::text`
)

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (customer_id, payment_method_id, total, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, name, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	GetOrdersByCustomerSQL = `
		SELECT id, created_at, customer_id, payment_method_id, total::text, status
		FROM orders WHERE customer_id = $1
		ORDER BY created_at ASC`

	GetAllOrdersSQL = `
		SELECT id, created_at, customer_id, payment_method_id, total::text, status
		FROM orders
		ORDER BY created_at ASC`

	GetOrderItemsSQL = `
		SELECT id, order_id, menu_item_id, name, quantity, unit_price::text, subtotal::text
		FROM order_items WHERE order_id = $1
		ORDER BY id ASC`
)
