package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
)

// OrderItem is one confirmed line of a persisted order. The name and
// unit price are snapshotted at order time so later menu edits do not
// rewrite history.
type OrderItem struct {
	ID         int             `json:"id,omitempty" db:"id"`
	OrderID    int             `json:"order_id,omitempty" db:"order_id"`
	MenuItemID int             `json:"menu_item_id" db:"menu_item_id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Order is the persisted result of a fulfilled cart. Total always
// equals the sum of line subtotals; an order is only ever stored
// fully priced and fully paid.
type Order struct {
	ID              int             `json:"id,omitempty" db:"id"`
	CreatedAt       time.Time       `json:"created_at,omitempty" db:"created_at"`
	CustomerID      int             `json:"customer_id" db:"customer_id"`
	PaymentMethodID int             `json:"payment_method_id" db:"payment_method_id"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Status          OrderStatus     `json:"status" db:"status"`
}

// RequestedLine is a caller-supplied cart line. Subtotal is what the
// caller claims the line costs; it is recomputed from the stored menu
// price and must match exactly.
type RequestedLine struct {
	MenuItemID int             `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// CreateOrderRequest is the caller-facing order submission.
type CreateOrderRequest struct {
	CustomerID       int              `json:"customer_id"`
	PaymentType      string           `json:"payment_type"`
	CredentialID     string           `json:"credential_id"`
	CredentialSecret string           `json:"credential_secret"`
	Items            []*RequestedLine `json:"items"`
}

// OrderCompletedMessage is published after an order commits.
type OrderCompletedMessage struct {
	OrderID      int             `json:"order_id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	PaymentType  PaymentType     `json:"payment_type"`
	Timestamp    time.Time       `json:"timestamp"`
}
