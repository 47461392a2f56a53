package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

// CartState tracks the lifecycle of a billing cart.
type CartState string

const (
	CartStateEmpty     CartState = "empty"
	CartStateBuilding  CartState = "building"
	CartStateCommitted CartState = "committed"
)

// LineItem is one cart row. SellingPrice is the tax-inclusive unit price
// actually charged; ListPrice is the immutable reference the discount is
// computed against. StockSnapshot is the available stock captured when the
// product was added and caps the quantity for the rest of the session.
type LineItem struct {
	ProductID       uuid.UUID
	Name            string
	HSN             string
	ListPrice       decimal.Decimal
	SellingPrice    decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
	StockSnapshot   int
	TaxRatePercent  decimal.Decimal
	CostPrice       decimal.Decimal
}

// Cart is an ordered collection of line items, merged on (product, selling price).
type Cart struct {
	lines []LineItem
	state CartState
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{state: CartStateEmpty}
}

// State returns the cart lifecycle state.
func (c *Cart) State() CartState {
	return c.state
}

// Lines returns a copy of the cart rows in insertion order.
func (c *Cart) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// AddLine merges the item into an existing row when the product and selling
// price match, otherwise appends a new row. The merged quantity never exceeds
// the stock snapshot taken when the product was first added.
func (c *Cart) AddLine(item LineItem) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if item.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if item.SellingPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
	}
	if item.Quantity > item.StockSnapshot {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d in stock", item.StockSnapshot))
	}

	for i := range c.lines {
		line := &c.lines[i]
		if line.ProductID != item.ProductID || !line.SellingPrice.Equal(item.SellingPrice) {
			continue
		}
		if line.Quantity+item.Quantity > line.StockSnapshot {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d in stock", line.StockSnapshot))
		}
		line.Quantity += item.Quantity
		c.state = CartStateBuilding
		return nil
	}

	c.lines = append(c.lines, item)
	c.state = CartStateBuilding
	return nil
}

// IncrementQty raises the quantity of the first line matching the product by
// one. The increment is rejected when it would exceed the stock snapshot.
func (c *Cart) IncrementQty(productID uuid.UUID) error {
	if err := c.mutable(); err != nil {
		return err
	}
	line, err := c.find(productID)
	if err != nil {
		return err
	}
	if line.Quantity+1 > line.StockSnapshot {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d in stock", line.StockSnapshot))
	}
	line.Quantity++
	return nil
}

// DecrementQty lowers the quantity of the first line matching the product by
// one. Dropping below one is rejected; remove the line instead.
func (c *Cart) DecrementQty(productID uuid.UUID) error {
	if err := c.mutable(); err != nil {
		return err
	}
	line, err := c.find(productID)
	if err != nil {
		return err
	}
	if line.Quantity <= 1 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "quantity cannot drop below 1, remove the line instead")
	}
	line.Quantity--
	return nil
}

// SetDiscount applies a committed 0-100 discount percentage to the first line
// matching the product and recomputes the selling price off the list price.
func (c *Cart) SetDiscount(productID uuid.UUID, percent decimal.Decimal) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 0 and 100")
	}
	line, err := c.find(productID)
	if err != nil {
		return err
	}
	line.DiscountPercent = percent
	line.SellingPrice = line.ListPrice.Mul(decimal.NewFromInt(1).Sub(percent.Div(decimal.NewFromInt(100))))
	return nil
}

// ClearDiscount resets the first line matching the product to its list price.
func (c *Cart) ClearDiscount(productID uuid.UUID) error {
	if err := c.mutable(); err != nil {
		return err
	}
	line, err := c.find(productID)
	if err != nil {
		return err
	}
	line.DiscountPercent = decimal.Zero
	line.SellingPrice = line.ListPrice
	return nil
}

// RemoveLine deletes the first line matching the product. An empty cart
// returns to the empty state.
func (c *Cart) RemoveLine(productID uuid.UUID) error {
	if err := c.mutable(); err != nil {
		return err
	}
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		if len(c.lines) == 0 {
			c.state = CartStateEmpty
		}
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
}

// Commit marks the cart as converted into an invoice.
func (c *Cart) Commit() error {
	if c.state != CartStateBuilding {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart has no lines to commit")
	}
	c.state = CartStateCommitted
	return nil
}

// Clear resets the cart for the next bill.
func (c *Cart) Clear() {
	c.lines = nil
	c.state = CartStateEmpty
}

func (c *Cart) mutable() error {
	if c.state == CartStateCommitted {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart already committed")
	}
	return nil
}

func (c *Cart) find(productID uuid.UUID) (*LineItem, error) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return &c.lines[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
}
