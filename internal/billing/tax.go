package billing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

var two = decimal.NewFromInt(2)

// SplitTax classifies the cart's GST per jurisdiction. When the customer and
// the shop share a state, every line's tax is halved into CGST and SGST
// components accumulated per half-rate; otherwise the full tax accumulates as
// IGST per rate. An unknown state on either side, or an empty cart, yields an
// empty breakup. The result is sorted by rate and label, so it is identical
// for any insertion order of the same lines.
func SplitTax(lines []LineItem, customerState, shopState string) types.TaxBreakupLines {
	customerState = normalizeState(customerState)
	shopState = normalizeState(shopState)
	if customerState == "" || shopState == "" || len(lines) == 0 {
		return nil
	}

	type bucket struct {
		label  string
		rate   decimal.Decimal
		amount decimal.Decimal
	}
	buckets := map[string]*bucket{}
	accumulate := func(kind string, rate, amount decimal.Decimal) {
		label := fmt.Sprintf("%s @%s%%", kind, rate.String())
		b, ok := buckets[label]
		if !ok {
			b = &bucket{label: label, rate: rate}
			buckets[label] = b
		}
		b.amount = b.amount.Add(amount)
	}

	intra := customerState == shopState
	for _, line := range lines {
		if line.TaxRatePercent.IsZero() {
			continue
		}
		tax := LineTax(line)
		if intra {
			halfRate := line.TaxRatePercent.Div(two)
			halfTax := tax.Div(two)
			accumulate("CGST", halfRate, halfTax)
			accumulate("SGST", halfRate, halfTax)
			continue
		}
		accumulate("IGST", line.TaxRatePercent, tax)
	}

	out := make(types.TaxBreakupLines, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, types.TaxBreakupLine{Label: b.label, Rate: b.rate, Amount: b.amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Rate.Equal(out[j].Rate) {
			return out[i].Rate.LessThan(out[j].Rate)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func normalizeState(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
