package payment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pos-system/internal/models"
)

var (
	ErrInvalidCredential      = errors.New("payment: invalid credential")
	ErrInsufficientFunds      = errors.New("payment: insufficient funds")
	ErrUnsupportedPaymentType = errors.New("payment: unsupported payment type")
	ErrPersistenceFailed      = errors.New("payment: balance update failed")
)

// Instrument is the common capability of all payment method variants.
// Debit returns the balance after the charge; callers must check
// CanAfford first.
type Instrument interface {
	Type() models.PaymentType
	CanAfford(amount decimal.Decimal) bool
	Debit(amount decimal.Decimal) decimal.Decimal
}

// TNGWallet is the Touch 'n Go e-wallet variant.
type TNGWallet struct {
	WalletID string
	Balance  decimal.Decimal
}

func (w *TNGWallet) Type() models.PaymentType { return models.PaymentTNG }

func (w *TNGWallet) CanAfford(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

func (w *TNGWallet) Debit(amount decimal.Decimal) decimal.Decimal {
	w.Balance = w.Balance.Sub(amount)
	return w.Balance
}

// GrabWallet is the GrabPay e-wallet variant.
type GrabWallet struct {
	WalletID string
	Balance  decimal.Decimal
}

func (w *GrabWallet) Type() models.PaymentType { return models.PaymentGrab }

func (w *GrabWallet) CanAfford(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

func (w *GrabWallet) Debit(amount decimal.Decimal) decimal.Decimal {
	w.Balance = w.Balance.Sub(amount)
	return w.Balance
}

// BankCard is the card variant. Every charge carries a fixed
// transaction fee, so spending power is balance minus the fee.
type BankCard struct {
	CardNumber string
	Expiry     string
	Balance    decimal.Decimal
	Fee        decimal.Decimal
}

func (c *BankCard) Type() models.PaymentType { return models.PaymentBank }

func (c *BankCard) CanAfford(amount decimal.Decimal) bool {
	return c.Balance.GreaterThanOrEqual(amount.Add(c.Fee))
}

func (c *BankCard) Debit(amount decimal.Decimal) decimal.Decimal {
	c.Balance = c.Balance.Sub(amount.Add(c.Fee))
	return c.Balance
}

// ParseType normalizes a caller-supplied payment type tag.
func ParseType(tag string) (models.PaymentType, error) {
	switch strings.ToLower(tag) {
	case "tng":
		return models.PaymentTNG, nil
	case "grab":
		return models.PaymentGrab, nil
	case "bank":
		return models.PaymentBank, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPaymentType, tag)
	}
}

// NewInstrument builds the matching variant from a stored record.
func NewInstrument(record *models.PaymentMethod, bankFee decimal.Decimal) (Instrument, error) {
	recordType, err := ParseType(string(record.Type))
	if err != nil {
		return nil, err
	}

	switch recordType {
	case models.PaymentTNG:
		return &TNGWallet{WalletID: strValue(record.WalletID), Balance: record.Balance}, nil
	case models.PaymentGrab:
		return &GrabWallet{WalletID: strValue(record.WalletID), Balance: record.Balance}, nil
	default:
		return &BankCard{
			CardNumber: strValue(record.CardNumber),
			Expiry:     strValue(record.CardExpiry),
			Balance:    record.Balance,
			Fee:        bankFee,
		}, nil
	}
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
