package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/internal/billing"
	"github.com/dukaanhq/dukaan-backend/internal/products"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type shopLoader interface {
	Profile(ctx context.Context) (*models.ShopProfile, error)
}

type stockAlerter interface {
	NotifyLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, threshold int) error
}

// Service exposes invoice finalization and the sales register.
type Service interface {
	Finalize(ctx context.Context, payload billing.CheckoutPayload) (*models.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListSales(ctx context.Context, input ListSalesInput) ([]models.Invoice, *pagination.Cursor, error)
	ListDues(ctx context.Context, input ListSalesInput) ([]models.Invoice, *pagination.Cursor, error)
	RecordPayment(ctx context.Context, invoiceID uuid.UUID, input RecordPaymentInput) (*models.Invoice, error)
	Summary(ctx context.Context, from, to time.Time) (SalesSummary, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	products products.Repository
	shop     shopLoader
	alerts   stockAlerter
	now      func() time.Time
}

// NewService builds an invoice service backed by the provided stack.
func NewService(repo Repository, tx txRunner, productRepo products.Repository, shop shopLoader, alerts stockAlerter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if shop == nil {
		return nil, fmt.Errorf("shop loader required")
	}
	if alerts == nil {
		return nil, fmt.Errorf("stock alerter required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: productRepo,
		shop:     shop,
		alerts:   alerts,
		now:      time.Now,
	}, nil
}

// ListSalesInput filters and paginates the sales register.
type ListSalesInput struct {
	From   *time.Time
	To     *time.Time
	Limit  int
	Cursor *pagination.Cursor
}

// RecordPaymentInput captures a settlement against an open invoice.
type RecordPaymentInput struct {
	Amount  decimal.Decimal
	Method  enums.PaymentMethod
	Remarks string
}

// Finalize persists the checkout atomically: the invoice with its line
// snapshots, the guarded stock decrements, the opening payment and any stock
// alerts all land in one transaction.
func (s *service) Finalize(ctx context.Context, payload billing.CheckoutPayload) (*models.Invoice, error) {
	if len(payload.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice requires at least one item")
	}
	if !payload.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if payload.PayingAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paying amount cannot be negative")
	}

	profile, err := s.shop.Profile(ctx)
	if err != nil {
		return nil, err
	}

	invoice := buildInvoice(payload)
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txProducts := s.products.WithTx(tx)

		invoiceNo, err := s.nextInvoiceNo(ctx, txRepo)
		if err != nil {
			return err
		}
		invoice.InvoiceNo = invoiceNo

		for _, item := range payload.Items {
			affected, err := txProducts.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock for %s", item.Name))
			}

			product, err := txProducts.GetByID(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
			}
			if err := s.alerts.NotifyLowStock(ctx, tx, product, profile.LowStockThreshold); err != nil {
				return err
			}
		}

		if err := txRepo.Create(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
		}

		if invoice.PaidAmount.IsPositive() {
			payment := &models.Payment{
				InvoiceID: invoice.ID,
				Amount:    invoice.PaidAmount,
				Method:    payload.PaymentMethod,
				Remarks:   optionalString(payload.Remarks),
			}
			if err := txRepo.AddPayment(ctx, payment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record opening payment")
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, invoice.ID)
}

// GetByID loads one invoice with its items, payments and customer.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

// ListSales returns a page of the sales register, newest first.
func (s *service) ListSales(ctx context.Context, input ListSalesInput) ([]models.Invoice, *pagination.Cursor, error) {
	return s.list(ctx, input, false)
}

// ListDues returns only the invoices carrying an outstanding balance.
func (s *service) ListDues(ctx context.Context, input ListSalesInput) ([]models.Invoice, *pagination.Cursor, error) {
	return s.list(ctx, input, true)
}

func (s *service) list(ctx context.Context, input ListSalesInput, duesOnly bool) ([]models.Invoice, *pagination.Cursor, error) {
	items, next, err := s.repo.List(ctx, listInvoicesParams{
		DuesOnly: duesOnly,
		From:     input.From,
		To:       input.To,
		Limit:    input.Limit,
		Cursor:   input.Cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return items, next, nil
}

// RecordPayment settles part or all of an open invoice. The amount may never
// exceed the outstanding due.
func (s *service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, input RecordPaymentInput) (*models.Invoice, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	invoice, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.DueAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is already settled")
	}
	if input.Amount.GreaterThan(invoice.DueAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must not exceed due amount")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		payment := &models.Payment{
			InvoiceID: invoice.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Remarks:   optionalString(input.Remarks),
		}
		if err := txRepo.AddPayment(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		invoice.PaidAmount = invoice.PaidAmount.Add(input.Amount)
		invoice.DueAmount = invoice.DueAmount.Sub(input.Amount)
		invoice.Status = enums.InvoiceStatusPartial
		if !invoice.DueAmount.IsPositive() {
			invoice.Status = enums.InvoiceStatusPaid
		}
		if err := txRepo.UpdateSettlement(ctx, invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settlement")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, invoice.ID)
}

// Summary aggregates the register for the given period.
func (s *service) Summary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	summary, err := s.repo.SalesSummary(ctx, from, to)
	if err != nil {
		return SalesSummary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sales summary")
	}
	return summary, nil
}

func (s *service) nextInvoiceNo(ctx context.Context, repo Repository) (string, error) {
	now := s.now()
	count, err := repo.CountForDay(ctx, now)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invoices")
	}
	return fmt.Sprintf("INV-%s-%04d", now.Format("20060102"), count+1), nil
}

func buildInvoice(payload billing.CheckoutPayload) *models.Invoice {
	subtotal := payload.SellingSubtotal.Round(2)
	paid := payload.PayingAmount.Round(2)

	due := subtotal.Sub(paid)
	if due.IsNegative() {
		due = decimal.Zero
	}
	status := enums.InvoiceStatusPaid
	if due.IsPositive() {
		status = enums.InvoiceStatusPartial
	}

	invoice := &models.Invoice{
		SellingSubtotal: subtotal,
		DiscountPercent: payload.DiscountPercent.Round(2),
		TaxAmount:       payload.Tax.Round(2),
		TaxableValue:    payload.TaxableValue.Round(2),
		TaxBreakup:      roundBreakup(payload.TaxBreakup),
		PaidAmount:      paid,
		DueAmount:       due,
		Status:          status,
		PaymentMethod:   payload.PaymentMethod,
		Remarks:         optionalString(payload.Remarks),
	}
	if payload.Customer != nil {
		customerID := payload.Customer.ID
		invoice.CustomerID = &customerID
	}

	for _, item := range payload.Items {
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ProductID:       item.ProductID,
			Name:            item.Name,
			HSN:             item.HSN,
			ListPrice:       item.ListPrice.Round(2),
			SellingPrice:    item.SellingPrice.Round(2),
			DiscountPercent: item.DiscountPercent.Round(2),
			Quantity:        item.Quantity,
			TaxRatePercent:  item.TaxRatePercent,
			TaxAmount:       billing.LineTax(item).Round(2),
			LineTotal:       item.SellingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
		})
	}
	return invoice
}

func roundBreakup(breakup types.TaxBreakupLines) types.TaxBreakupLines {
	if len(breakup) == 0 {
		return nil
	}
	out := make(types.TaxBreakupLines, 0, len(breakup))
	for _, entry := range breakup {
		out = append(out, types.TaxBreakupLine{
			Label:  entry.Label,
			Rate:   entry.Rate,
			Amount: entry.Amount.Round(2),
		})
	}
	return out
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
