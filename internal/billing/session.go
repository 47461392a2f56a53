package billing

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

// Customer is the jurisdiction-bearing selection on a session. Selection is
// independent of cart state: it survives line removal and is only dropped by
// a clear.
type Customer struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	State     string
	GSTNumber string
}

// Snapshot is the full observable state of a billing session.
type Snapshot struct {
	ID              uuid.UUID
	State           CartState
	Lines           []LineItem
	Totals          Totals
	TaxBreakup      types.TaxBreakupLines
	Customer        *Customer
	PaymentMethod   enums.PaymentMethod
	Remarks         string
	PayingAmount    decimal.Decimal
	RemainingAmount decimal.Decimal
	ManualPayment   bool
}

// CheckoutPayload is the contract boundary handed to the invoice persistence
// layer when a bill is finalized.
type CheckoutPayload struct {
	Customer        *Customer
	Items           []LineItem
	SellingSubtotal decimal.Decimal
	DiscountPercent decimal.Decimal
	Tax             decimal.Decimal
	TaxableValue    decimal.Decimal
	TaxBreakup      types.TaxBreakupLines
	PaymentMethod   enums.PaymentMethod
	Remarks         string
	PayingAmount    decimal.Decimal
	RemainingAmount decimal.Decimal
}

// Session owns one billing counter interaction: the cart, the selected
// customer and the payment state. It exists only in memory and is discarded
// on completion or reset.
type Session struct {
	ID uuid.UUID

	mu            sync.Mutex
	cart          *Cart
	customer      *Customer
	tracker       PaymentTracker
	method        enums.PaymentMethod
	defaultMethod enums.PaymentMethod
	remarks       string
	createdAt     time.Time
	touchedAt     time.Time
}

// NewSession opens a session with the configured default payment method.
func NewSession(id uuid.UUID, defaultMethod enums.PaymentMethod, now time.Time) *Session {
	return &Session{
		ID:            id,
		cart:          NewCart(),
		method:        defaultMethod,
		defaultMethod: defaultMethod,
		createdAt:     now,
		touchedAt:     now,
	}
}

// Touch refreshes the eviction clock.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedAt = now
}

// TouchedAt returns the last activity time.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// AddLine merges the item into the cart and re-syncs the paying amount.
func (s *Session) AddLine(item LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.AddLine(item); err != nil {
		return err
	}
	s.syncTracker()
	return nil
}

// IncrementQty raises a line quantity by one within the stock snapshot.
func (s *Session) IncrementQty(productID uuid.UUID) error {
	return s.mutate(func() error { return s.cart.IncrementQty(productID) })
}

// DecrementQty lowers a line quantity by one, never below one.
func (s *Session) DecrementQty(productID uuid.UUID) error {
	return s.mutate(func() error { return s.cart.DecrementQty(productID) })
}

// SetDiscount applies a committed discount percentage to a line.
func (s *Session) SetDiscount(productID uuid.UUID, percent decimal.Decimal) error {
	return s.mutate(func() error { return s.cart.SetDiscount(productID, percent) })
}

// ClearDiscount resets a line to its list price.
func (s *Session) ClearDiscount(productID uuid.UUID) error {
	return s.mutate(func() error { return s.cart.ClearDiscount(productID) })
}

// RemoveLine deletes a line. The customer selection is retained.
func (s *Session) RemoveLine(productID uuid.UUID) error {
	return s.mutate(func() error { return s.cart.RemoveLine(productID) })
}

// SelectCustomer attaches the customer whose state drives the GST split.
func (s *Session) SelectCustomer(customer Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := customer
	s.customer = &c
}

// Customer returns the current selection, or nil.
func (s *Session) Customer() *Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customer == nil {
		return nil
	}
	c := *s.customer
	return &c
}

// SetPayingAmount pins the paying amount manually. The override persists
// across further cart changes until the session is cleared.
func (s *Session) SetPayingAmount(amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Override(amount)
}

// SetPaymentMethod switches the settlement method for the current bill.
func (s *Session) SetPaymentMethod(method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = method
	return nil
}

// SetRemarks stores free-form remarks carried onto the invoice.
func (s *Session) SetRemarks(remarks string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remarks = remarks
}

// Snapshot derives the observable state, including the GST breakup against
// the provided shop state.
func (s *Session) Snapshot(shopState string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	totals := ComputeTotals(lines)
	snap := Snapshot{
		ID:            s.ID,
		State:         s.cart.State(),
		Lines:         lines,
		Totals:        totals,
		PaymentMethod: s.method,
		Remarks:       s.remarks,
		PayingAmount:  s.tracker.PayingAmount(),
		ManualPayment: s.tracker.Overridden(),
	}
	snap.RemainingAmount = s.tracker.Remaining(totals.SellingSubtotal)
	if s.customer != nil {
		c := *s.customer
		snap.Customer = &c
		snap.TaxBreakup = SplitTax(lines, c.State, shopState)
	}
	return snap
}

// PrepareCheckout validates the session and builds the finalization payload
// without mutating any state, so a failed persistence attempt leaves the
// session intact.
func (s *Session) PrepareCheckout(shopState string) (CheckoutPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.State() != CartStateBuilding {
		return CheckoutPayload{}, pkgerrors.New(pkgerrors.CodeStateConflict, "cart has no lines to check out")
	}

	lines := s.cart.Lines()
	totals := ComputeTotals(lines)
	payload := CheckoutPayload{
		Items:           lines,
		SellingSubtotal: totals.SellingSubtotal,
		DiscountPercent: totals.DiscountPercent,
		Tax:             totals.Tax,
		TaxableValue:    totals.TaxableValue,
		PaymentMethod:   s.method,
		Remarks:         s.remarks,
		PayingAmount:    s.tracker.PayingAmount(),
		RemainingAmount: s.tracker.Remaining(totals.SellingSubtotal),
	}
	if s.customer != nil {
		c := *s.customer
		payload.Customer = &c
		payload.TaxBreakup = SplitTax(lines, c.State, shopState)
	}
	return payload, nil
}

// CompleteCheckout commits the cart and resets the session for the next bill.
func (s *Session) CompleteCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cart.Commit(); err != nil {
		return err
	}
	s.reset()
	return nil
}

// Clear abandons the session: cart, customer, payment method and override
// flag all reset, with no other side effects.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Session) reset() {
	s.cart.Clear()
	s.customer = nil
	s.tracker.Reset()
	s.method = s.defaultMethod
	s.remarks = ""
}

func (s *Session) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	s.syncTracker()
	return nil
}

func (s *Session) syncTracker() {
	totals := ComputeTotals(s.cart.Lines())
	s.tracker.SyncSubtotal(totals.SellingSubtotal)
}
