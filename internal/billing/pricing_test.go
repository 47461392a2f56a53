package billing

import (
	"testing"

	"github.com/google/uuid"
)

func TestComputeTotalsWorkedExample(t *testing.T) {
	t.Parallel()

	// One product at list 100 with a 10% discount, qty 2, 18% GST inclusive.
	line := testLine(uuid.New(), "100", 2, 10)
	line.SellingPrice = dec("90")
	line.DiscountPercent = dec("10")

	totals := ComputeTotals([]LineItem{line})

	if !totals.ActualSubtotal.Equal(dec("200")) {
		t.Fatalf("expected actual subtotal 200, got %s", totals.ActualSubtotal)
	}
	if !totals.SellingSubtotal.Equal(dec("180")) {
		t.Fatalf("expected selling subtotal 180, got %s", totals.SellingSubtotal)
	}
	if !totals.DiscountPercent.Round(2).Equal(dec("10")) {
		t.Fatalf("expected discount 10%%, got %s", totals.DiscountPercent)
	}
	if !totals.Tax.Round(2).Equal(dec("27.46")) {
		t.Fatalf("expected tax 27.46, got %s", totals.Tax)
	}
	if !totals.TaxableValue.Round(2).Equal(dec("152.54")) {
		t.Fatalf("expected taxable value 152.54, got %s", totals.TaxableValue)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals(nil)
	if !totals.SellingSubtotal.IsZero() || !totals.Tax.IsZero() || !totals.DiscountPercent.IsZero() {
		t.Fatalf("expected all-zero totals, got %+v", totals)
	}
}

func TestComputeTotalsZeroListPriceSkipsDiscount(t *testing.T) {
	t.Parallel()

	line := testLine(uuid.New(), "0", 1, 10)
	totals := ComputeTotals([]LineItem{line})
	if !totals.DiscountPercent.IsZero() {
		t.Fatalf("expected zero discount for zero list price, got %s", totals.DiscountPercent)
	}
}

func TestLineBasePriceExtractsInclusiveTax(t *testing.T) {
	t.Parallel()

	line := testLine(uuid.New(), "118", 1, 10)
	if base := LineBasePrice(line); !base.Round(2).Equal(dec("100")) {
		t.Fatalf("expected base price 100, got %s", base)
	}

	zeroRate := testLine(uuid.New(), "50", 1, 10)
	zeroRate.TaxRatePercent = dec("0")
	if base := LineBasePrice(zeroRate); !base.Equal(dec("50")) {
		t.Fatalf("expected base price 50 at zero rate, got %s", base)
	}
}

func TestLineTaxScalesWithQuantity(t *testing.T) {
	t.Parallel()

	line := testLine(uuid.New(), "118", 3, 10)
	if tax := LineTax(line); !tax.Round(2).Equal(dec("54")) {
		t.Fatalf("expected tax 54 across 3 units, got %s", tax)
	}
}

func TestDiscountPercentFor(t *testing.T) {
	t.Parallel()

	if p := DiscountPercentFor(dec("200"), dec("150")); !p.Equal(dec("25")) {
		t.Fatalf("expected 25%%, got %s", p)
	}
	if p := DiscountPercentFor(dec("0"), dec("10")); !p.IsZero() {
		t.Fatalf("expected zero discount for zero list price, got %s", p)
	}
	// Selling above list implies a negative discount, kept as-is.
	if p := DiscountPercentFor(dec("100"), dec("110")); !p.Equal(dec("-10")) {
		t.Fatalf("expected -10%%, got %s", p)
	}
}
