package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

func newTestSession() *Session {
	return NewSession(uuid.New(), enums.PaymentMethodCash, time.Now())
}

func TestSessionPayingAmountTracksCart(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	productID := uuid.New()
	if err := session.AddLine(testLine(productID, "90", 2, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := session.Snapshot("Karnataka")
	if !snap.PayingAmount.Equal(dec("180")) {
		t.Fatalf("expected paying amount 180, got %s", snap.PayingAmount)
	}
	if !snap.RemainingAmount.IsZero() {
		t.Fatalf("expected zero remaining, got %s", snap.RemainingAmount)
	}

	if err := session.IncrementQty(productID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap = session.Snapshot("Karnataka")
	if !snap.PayingAmount.Equal(dec("270")) {
		t.Fatalf("expected paying amount to follow cart, got %s", snap.PayingAmount)
	}
}

func TestSessionManualPayingAmountSurvivesMutations(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	productID := uuid.New()
	if err := session.AddLine(testLine(productID, "90", 2, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.SetPayingAmount(dec("50")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.IncrementQty(productID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := session.Snapshot("Karnataka")
	if !snap.PayingAmount.Equal(dec("50")) || !snap.ManualPayment {
		t.Fatalf("expected pinned amount 50, got %s manual=%v", snap.PayingAmount, snap.ManualPayment)
	}
	if !snap.RemainingAmount.Equal(dec("220")) {
		t.Fatalf("expected remaining 220, got %s", snap.RemainingAmount)
	}
}

func TestSessionCustomerSurvivesLineRemoval(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	productID := uuid.New()
	if err := session.AddLine(testLine(productID, "100", 1, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session.SelectCustomer(Customer{ID: uuid.New(), Name: "Asha", State: "Karnataka"})

	if err := session.RemoveLine(productID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Customer() == nil {
		t.Fatal("expected customer selection to survive line removal")
	}
}

func TestSessionSnapshotSplitsTaxForSelectedCustomer(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	if err := session.AddLine(testLine(uuid.New(), "118", 1, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := session.Snapshot("Karnataka")
	if snap.TaxBreakup != nil {
		t.Fatalf("expected no breakup without a customer, got %v", snap.TaxBreakup)
	}

	session.SelectCustomer(Customer{ID: uuid.New(), Name: "Asha", State: "Karnataka"})
	snap = session.Snapshot("Karnataka")
	if len(snap.TaxBreakup) != 2 {
		t.Fatalf("expected CGST and SGST buckets, got %v", snap.TaxBreakup)
	}
}

func TestSessionPrepareCheckoutDoesNotMutate(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	if err := session.AddLine(testLine(uuid.New(), "90", 2, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.SetPaymentMethod(enums.PaymentMethodUPI); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := session.PrepareCheckout("Karnataka")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.SellingSubtotal.Equal(dec("180")) {
		t.Fatalf("expected subtotal 180, got %s", payload.SellingSubtotal)
	}
	if payload.PaymentMethod != enums.PaymentMethodUPI {
		t.Fatalf("expected UPI, got %s", payload.PaymentMethod)
	}

	// The cart must still be editable after a prepared checkout.
	snap := session.Snapshot("Karnataka")
	if snap.State != CartStateBuilding {
		t.Fatalf("expected building state, got %s", snap.State)
	}
}

func TestSessionPrepareCheckoutEmptyCart(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	_, err := session.PrepareCheckout("Karnataka")
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSessionCompleteCheckoutResets(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	if err := session.AddLine(testLine(uuid.New(), "90", 1, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session.SelectCustomer(Customer{ID: uuid.New(), Name: "Asha", State: "Kerala"})
	if err := session.SetPayingAmount(dec("10")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := session.SetPaymentMethod(enums.PaymentMethodCard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := session.CompleteCheckout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := session.Snapshot("Karnataka")
	if snap.State != CartStateEmpty || len(snap.Lines) != 0 {
		t.Fatalf("expected empty session, got %+v", snap)
	}
	if snap.Customer != nil || snap.ManualPayment {
		t.Fatal("expected customer and override cleared")
	}
	if snap.PaymentMethod != enums.PaymentMethodCash {
		t.Fatalf("expected default method restored, got %s", snap.PaymentMethod)
	}
}

func TestSessionClearAbandonsEverything(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	if err := session.AddLine(testLine(uuid.New(), "90", 1, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session.SelectCustomer(Customer{ID: uuid.New(), Name: "Asha", State: "Kerala"})
	session.SetRemarks("deliver tomorrow")
	session.Clear()

	snap := session.Snapshot("Karnataka")
	if snap.State != CartStateEmpty || snap.Customer != nil || snap.Remarks != "" {
		t.Fatalf("expected fully cleared session, got %+v", snap)
	}
}

func TestSessionRejectsInvalidPaymentMethod(t *testing.T) {
	t.Parallel()

	session := newTestSession()
	assertCode(t, session.SetPaymentMethod(enums.PaymentMethod("CHEQUE")), pkgerrors.CodeValidation)
}
