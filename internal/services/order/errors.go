package order

import "errors"

// Domain errors returned by CreateOrder. These are expected,
// user-facing outcomes; anything else that comes out of the service
// is a system fault.
var (
	ErrCustomerNotFound      = errors.New("order: customer not found")
	ErrEmptyOrder            = errors.New("order: no items requested")
	ErrInvalidLine           = errors.New("order: invalid line item")
	ErrInvalidQuantity       = errors.New("order: invalid quantity")
	ErrItemNotFound          = errors.New("order: menu item not found")
	ErrInsufficientStock     = errors.New("order: insufficient stock")
	ErrPriceMismatch         = errors.New("order: price mismatch")
	ErrPaymentFailed         = errors.New("order: payment failed")
	ErrPaymentMethodNotFound = errors.New("order: payment method not found")
	ErrStockUpdateFailed     = errors.New("order: stock update failed")
)
