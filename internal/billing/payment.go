package billing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

// PaymentTracker keeps the paying amount in step with the cart subtotal. The
// amount follows every subtotal change until the cashier overrides it by hand;
// the override then sticks until the session is cleared. Overpayment is
// allowed here, the submission layer decides whether to reject it.
type PaymentTracker struct {
	payingAmount decimal.Decimal
	overridden   bool
}

// SyncSubtotal re-syncs the paying amount to the subtotal unless overridden.
func (t *PaymentTracker) SyncSubtotal(subtotal decimal.Decimal) {
	if t.overridden {
		return
	}
	t.payingAmount = subtotal
}

// Override pins the paying amount to a manual value.
func (t *PaymentTracker) Override(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "paying amount cannot be negative")
	}
	t.payingAmount = amount
	t.overridden = true
	return nil
}

// PayingAmount returns the current paying amount.
func (t *PaymentTracker) PayingAmount() decimal.Decimal {
	return t.payingAmount
}

// Overridden reports whether the cashier pinned the amount manually.
func (t *PaymentTracker) Overridden() bool {
	return t.overridden
}

// Remaining is the unpaid balance against the subtotal. Negative when the
// customer pays more than the bill.
func (t *PaymentTracker) Remaining(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(t.payingAmount)
}

// Reset clears the tracker for the next bill.
func (t *PaymentTracker) Reset() {
	t.payingAmount = decimal.Zero
	t.overridden = false
}
