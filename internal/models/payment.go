package models

import "github.com/shopspring/decimal"

// PaymentType identifies which instrument variant a stored payment
// method record belongs to. Matching is case-insensitive.
type PaymentType string

const (
	PaymentTNG  PaymentType = "TNG"
	PaymentGrab PaymentType = "Grab"
	PaymentBank PaymentType = "Bank"
)

// PaymentMethod is a stored payment instrument record. Wallet types
// carry a wallet identifier; the card type carries a card number and
// expiry. SecretHash is the one-way digest of the owner's credential.
type PaymentMethod struct {
	ID         int             `json:"id" db:"id"`
	Type       PaymentType     `json:"type" db:"type"`
	WalletID   *string         `json:"wallet_id,omitempty" db:"wallet_id"`
	CardNumber *string         `json:"card_number,omitempty" db:"card_number"`
	CardExpiry *string         `json:"card_expiry,omitempty" db:"card_expiry"`
	SecretHash string          `json:"-" db:"secret_hash"`
	Balance    decimal.Decimal `json:"balance" db:"balance"`
}
