package billing

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// Totals aggregates the derived pricing for a cart. All GST handling assumes
// tax-inclusive selling prices: the per-line base price is extracted as
// sellingPrice / (1 + rate/100). TaxableValue is the selling subtotal net of
// that extracted tax.
type Totals struct {
	ActualSubtotal  decimal.Decimal
	SellingSubtotal decimal.Decimal
	DiscountPercent decimal.Decimal
	Tax             decimal.Decimal
	TaxableValue    decimal.Decimal
}

// ComputeTotals derives the aggregate figures for the provided lines.
// An empty cart yields all zeroes; the discount percentage short-circuits to
// zero when the list-price subtotal is zero.
func ComputeTotals(lines []LineItem) Totals {
	var t Totals
	for _, line := range lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		t.ActualSubtotal = t.ActualSubtotal.Add(line.ListPrice.Mul(qty))
		t.SellingSubtotal = t.SellingSubtotal.Add(line.SellingPrice.Mul(qty))
		t.Tax = t.Tax.Add(LineTax(line))
	}
	if t.ActualSubtotal.IsPositive() {
		t.DiscountPercent = t.ActualSubtotal.Sub(t.SellingSubtotal).Div(t.ActualSubtotal).Mul(hundred)
	}
	t.TaxableValue = t.SellingSubtotal.Sub(t.Tax)
	return t
}

// LineBasePrice extracts the tax-exclusive unit price from the tax-inclusive
// selling price.
func LineBasePrice(line LineItem) decimal.Decimal {
	divisor := one.Add(line.TaxRatePercent.Div(hundred))
	if !divisor.IsPositive() {
		return line.SellingPrice
	}
	return line.SellingPrice.Div(divisor)
}

// LineTax is the GST embedded in the line across its quantity.
func LineTax(line LineItem) decimal.Decimal {
	unitTax := line.SellingPrice.Sub(LineBasePrice(line))
	return unitTax.Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// DiscountPercentFor derives the discount implied by an overridden selling
// price, or zero when the list price is zero.
func DiscountPercentFor(listPrice, sellingPrice decimal.Decimal) decimal.Decimal {
	if !listPrice.IsPositive() {
		return decimal.Zero
	}
	return listPrice.Sub(sellingPrice).Div(listPrice).Mul(hundred)
}
