package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pos-system/internal/models"
)

// InstrumentStore is the persistence contract for payment method
// records. Implementations must treat lookups as exact matches on
// both identifier and secret digest. DebitBalance must subtract the
// charge from the current stored balance and re-check coverage in
// the same step, so a balance read between two concurrent debits
// cannot make one of them vanish; it returns the resulting balance,
// or false when the balance no longer covers the charge.
type InstrumentStore interface {
	FindByWalletID(ctx context.Context, walletID string) (*models.PaymentMethod, error)
	FindByCardNumber(ctx context.Context, cardNumber string) (*models.PaymentMethod, error)
	AuthenticateByWalletID(ctx context.Context, walletID, secretHash string) (*models.PaymentMethod, error)
	AuthenticateByCardNumber(ctx context.Context, cardNumber, secretHash string) (*models.PaymentMethod, error)
	DebitBalance(ctx context.Context, id int, charge decimal.Decimal) (decimal.Decimal, bool, error)
}

// HashSecret digests a payment credential with the same one-way
// function used at enrollment.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Authorizer authenticates a payment instrument owner, checks
// affordability and settles the charge against the stored balance.
type Authorizer struct {
	bankFee decimal.Decimal
}

// NewAuthorizer creates an authorizer with the configured bank card fee.
func NewAuthorizer(bankFee decimal.Decimal) *Authorizer {
	return &Authorizer{bankFee: bankFee}
}

// AuthorizeAndDebit resolves the instrument matching (identifier,
// secret) for the requested payment type, verifies it can afford the
// amount, debits it and persists the new balance through store. The
// returned record carries the post-debit balance.
//
// The store argument is taken per call so the debit can run inside
// the caller's transaction.
func (a *Authorizer) AuthorizeAndDebit(ctx context.Context, store InstrumentStore, paymentType, identifier, secret string, amount decimal.Decimal) (*models.PaymentMethod, error) {
	requested, err := ParseType(paymentType)
	if err != nil {
		return nil, err
	}

	secretHash := HashSecret(secret)

	var record *models.PaymentMethod
	switch requested {
	case models.PaymentBank:
		record, err = store.AuthenticateByCardNumber(ctx, identifier, secretHash)
	default:
		record, err = store.AuthenticateByWalletID(ctx, identifier, secretHash)
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate instrument: %w", err)
	}
	if record == nil || !strings.EqualFold(string(record.Type), string(requested)) {
		return nil, ErrInvalidCredential
	}

	instrument, err := NewInstrument(record, a.bankFee)
	if err != nil {
		return nil, err
	}

	if !instrument.CanAfford(amount) {
		return nil, fmt.Errorf("%w: balance %s cannot cover %s", ErrInsufficientFunds, record.Balance, amount)
	}

	// The affordability check above is advisory; the store subtracts
	// the charge relative to the live row, so a concurrent debit on
	// the same instrument surfaces here as insufficient funds instead
	// of overwriting the other debit.
	charge := record.Balance.Sub(instrument.Debit(amount))

	newBalance, ok, err := store.DebitBalance(ctx, record.ID, charge)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: balance no longer covers %s", ErrInsufficientFunds, charge)
	}

	record.Balance = newBalance
	return record, nil
}
