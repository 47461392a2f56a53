package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSplitTaxIntraState(t *testing.T) {
	t.Parallel()

	line18 := testLine(uuid.New(), "118", 1, 10)
	line5 := testLine(uuid.New(), "105", 1, 10)
	line5.TaxRatePercent = dec("5")

	breakup := SplitTax([]LineItem{line18, line5}, "karnataka", "Karnataka")
	if len(breakup) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(breakup))
	}

	labels := make([]string, 0, len(breakup))
	var cgst, sgst, total decimal.Decimal
	for _, entry := range breakup {
		labels = append(labels, entry.Label)
		total = total.Add(entry.Amount)
		switch entry.Label[:4] {
		case "CGST":
			cgst = cgst.Add(entry.Amount)
		case "SGST":
			sgst = sgst.Add(entry.Amount)
		}
	}

	want := []string{"CGST @2.5%", "SGST @2.5%", "CGST @9%", "SGST @9%"}
	for i, label := range want {
		if labels[i] != label {
			t.Fatalf("expected label %q at %d, got %q", label, i, labels[i])
		}
	}
	if !cgst.Equal(sgst) {
		t.Fatalf("expected CGST %s to equal SGST %s", cgst, sgst)
	}
	if !total.Round(2).Equal(dec("23")) {
		t.Fatalf("expected total split tax 23, got %s", total)
	}
}

func TestSplitTaxInterState(t *testing.T) {
	t.Parallel()

	lines := []LineItem{testLine(uuid.New(), "118", 2, 10)}
	breakup := SplitTax(lines, "Kerala", "Karnataka")
	if len(breakup) != 1 {
		t.Fatalf("expected single IGST bucket, got %d", len(breakup))
	}
	if breakup[0].Label != "IGST @18%" {
		t.Fatalf("unexpected label %q", breakup[0].Label)
	}

	totals := ComputeTotals(lines)
	if !breakup[0].Amount.Equal(totals.Tax) {
		t.Fatalf("expected IGST %s to equal total tax %s", breakup[0].Amount, totals.Tax)
	}
}

func TestSplitTaxOrderIndependent(t *testing.T) {
	t.Parallel()

	a := testLine(uuid.New(), "118", 1, 10)
	b := testLine(uuid.New(), "105", 1, 10)
	b.TaxRatePercent = dec("5")
	c := testLine(uuid.New(), "236", 1, 10)

	forward := SplitTax([]LineItem{a, b, c}, "Karnataka", "Karnataka")
	reverse := SplitTax([]LineItem{c, b, a}, "Karnataka", "Karnataka")

	if len(forward) != len(reverse) {
		t.Fatalf("bucket count mismatch: %d vs %d", len(forward), len(reverse))
	}
	for i := range forward {
		if forward[i].Label != reverse[i].Label || !forward[i].Amount.Equal(reverse[i].Amount) {
			t.Fatalf("bucket %d differs: %+v vs %+v", i, forward[i], reverse[i])
		}
	}
}

func TestSplitTaxMissingStateOrEmptyCart(t *testing.T) {
	t.Parallel()

	lines := []LineItem{testLine(uuid.New(), "118", 1, 10)}
	if got := SplitTax(lines, "", "Karnataka"); got != nil {
		t.Fatalf("expected nil breakup for missing customer state, got %v", got)
	}
	if got := SplitTax(lines, "Kerala", "  "); got != nil {
		t.Fatalf("expected nil breakup for missing shop state, got %v", got)
	}
	if got := SplitTax(nil, "Kerala", "Karnataka"); got != nil {
		t.Fatalf("expected nil breakup for empty cart, got %v", got)
	}
}

func TestSplitTaxSkipsZeroRateLines(t *testing.T) {
	t.Parallel()

	exempt := testLine(uuid.New(), "100", 1, 10)
	exempt.TaxRatePercent = decimal.Zero
	if got := SplitTax([]LineItem{exempt}, "Karnataka", "Karnataka"); len(got) != 0 {
		t.Fatalf("expected no buckets for exempt line, got %v", got)
	}
}
