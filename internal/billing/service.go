package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/metrics"
)

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type customerLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type shopLoader interface {
	Profile(ctx context.Context) (*models.ShopProfile, error)
}

type invoiceCommitter interface {
	Finalize(ctx context.Context, payload CheckoutPayload) (*models.Invoice, error)
}

// Service exposes the billing session lifecycle.
type Service interface {
	StartSession(ctx context.Context) (Snapshot, error)
	GetSession(ctx context.Context, id uuid.UUID) (Snapshot, error)
	AddItem(ctx context.Context, sessionID, productID uuid.UUID, sellingPrice *decimal.Decimal, quantity int) (Snapshot, error)
	IncrementItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error)
	DecrementItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error)
	RemoveItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error)
	SetItemDiscount(ctx context.Context, sessionID, productID uuid.UUID, percent decimal.Decimal) (Snapshot, error)
	ClearItemDiscount(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error)
	SelectCustomer(ctx context.Context, sessionID, customerID uuid.UUID) (Snapshot, error)
	SetPayingAmount(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal) (Snapshot, error)
	SetPaymentMethod(ctx context.Context, sessionID uuid.UUID, method enums.PaymentMethod) (Snapshot, error)
	SetRemarks(ctx context.Context, sessionID uuid.UUID, remarks string) (Snapshot, error)
	Checkout(ctx context.Context, sessionID uuid.UUID) (*models.Invoice, error)
	Abandon(ctx context.Context, sessionID uuid.UUID) error
}

type service struct {
	registry      *Registry
	products      productLoader
	customers     customerLoader
	shop          shopLoader
	invoices      invoiceCommitter
	metrics       *metrics.BillingMetrics
	defaultMethod enums.PaymentMethod
}

// NewService builds a billing service backed by the provided stack.
func NewService(
	registry *Registry,
	products productLoader,
	customers customerLoader,
	shop shopLoader,
	invoices invoiceCommitter,
	billingMetrics *metrics.BillingMetrics,
	defaultMethod enums.PaymentMethod,
) (Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	if shop == nil {
		return nil, fmt.Errorf("shop loader required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice committer required")
	}
	if !defaultMethod.IsValid() {
		return nil, fmt.Errorf("invalid default payment method %q", defaultMethod)
	}
	return &service{
		registry:      registry,
		products:      products,
		customers:     customers,
		shop:          shop,
		invoices:      invoices,
		metrics:       billingMetrics,
		defaultMethod: defaultMethod,
	}, nil
}

// StartSession opens an empty session and registers it for lookup.
func (s *service) StartSession(ctx context.Context) (Snapshot, error) {
	shopState, err := s.shopState(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	session := NewSession(uuid.New(), s.defaultMethod, time.Now())
	s.registry.Put(session)
	s.metrics.IncSessionStarted()
	return session.Snapshot(shopState), nil
}

// GetSession returns the current snapshot for a live session.
func (s *service) GetSession(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	return s.snapshotOf(ctx, id)
}

// AddItem loads the product, derives price and discount, and merges it into
// the cart. When sellingPrice is nil the product list price is used.
func (s *service) AddItem(ctx context.Context, sessionID, productID uuid.UUID, sellingPrice *decimal.Decimal, quantity int) (Snapshot, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if quantity <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}
	if !product.IsActive {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if product.Stock <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock")
	}

	selling := product.ListPrice
	if sellingPrice != nil {
		if sellingPrice.IsNegative() {
			return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "selling price cannot be negative")
		}
		selling = *sellingPrice
	}

	line := LineItem{
		ProductID:       product.ID,
		Name:            product.Name,
		HSN:             product.HSN,
		ListPrice:       product.ListPrice,
		SellingPrice:    selling,
		DiscountPercent: DiscountPercentFor(product.ListPrice, selling),
		Quantity:        quantity,
		StockSnapshot:   product.Stock,
		TaxRatePercent:  product.TaxRatePercent,
		CostPrice:       product.CostPrice,
	}
	if err := session.AddLine(line); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, session)
}

// IncrementItem raises a line quantity by one.
func (s *service) IncrementItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.IncrementQty(productID)
	})
}

// DecrementItem lowers a line quantity by one.
func (s *service) DecrementItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.DecrementQty(productID)
	})
}

// RemoveItem deletes a line from the cart.
func (s *service) RemoveItem(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.RemoveLine(productID)
	})
}

// SetItemDiscount applies a per-line discount percentage.
func (s *service) SetItemDiscount(ctx context.Context, sessionID, productID uuid.UUID, percent decimal.Decimal) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.SetDiscount(productID, percent)
	})
}

// ClearItemDiscount resets a line to its list price.
func (s *service) ClearItemDiscount(ctx context.Context, sessionID, productID uuid.UUID) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.ClearDiscount(productID)
	})
}

// SelectCustomer attaches a saved customer to the session.
func (s *service) SelectCustomer(ctx context.Context, sessionID, customerID uuid.UUID) (Snapshot, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return Snapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	selection := Customer{
		ID:    customer.ID,
		Name:  customer.Name,
		Phone: customer.Phone,
		State: customer.State,
	}
	if customer.GSTNumber != nil {
		selection.GSTNumber = *customer.GSTNumber
	}
	session.SelectCustomer(selection)
	return s.snapshot(ctx, session)
}

// SetPayingAmount pins the amount the customer is paying now.
func (s *service) SetPayingAmount(ctx context.Context, sessionID uuid.UUID, amount decimal.Decimal) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.SetPayingAmount(amount)
	})
}

// SetPaymentMethod switches the settlement method.
func (s *service) SetPaymentMethod(ctx context.Context, sessionID uuid.UUID, method enums.PaymentMethod) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		return session.SetPaymentMethod(method)
	})
}

// SetRemarks stores free-form remarks for the bill.
func (s *service) SetRemarks(ctx context.Context, sessionID uuid.UUID, remarks string) (Snapshot, error) {
	return s.mutateSession(ctx, sessionID, func(session *Session) error {
		session.SetRemarks(remarks)
		return nil
	})
}

// Checkout finalizes the bill. The payload is built first and only a
// successful persistence commits and clears the session, so a storage
// failure leaves the cart editable.
func (s *service) Checkout(ctx context.Context, sessionID uuid.UUID) (*models.Invoice, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	shopState, err := s.shopState(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := session.PrepareCheckout(shopState)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	invoice, err := s.invoices.Finalize(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCheckout(time.Since(started))
	s.metrics.IncInvoiceFinalized(string(invoice.Status))

	if err := session.CompleteCheckout(); err != nil {
		return nil, err
	}
	s.registry.Delete(sessionID)
	return invoice, nil
}

// Abandon discards the session and all of its state.
func (s *service) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return err
	}
	session.Clear()
	s.registry.Delete(sessionID)
	s.metrics.IncSessionAbandoned()
	return nil
}

func (s *service) mutateSession(ctx context.Context, sessionID uuid.UUID, fn func(*Session) error) (Snapshot, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(session); err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, session)
}

func (s *service) snapshotOf(ctx context.Context, sessionID uuid.UUID) (Snapshot, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, session)
}

func (s *service) snapshot(ctx context.Context, session *Session) (Snapshot, error) {
	shopState, err := s.shopState(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(shopState), nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) shopState(ctx context.Context) (string, error) {
	profile, err := s.shop.Profile(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop profile")
	}
	return profile.State, nil
}
