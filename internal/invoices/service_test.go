package invoices

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/internal/billing"
	"github.com/dukaanhq/dukaan-backend/internal/notifications"
	"github.com/dukaanhq/dukaan-backend/internal/products"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

type testShopLoader struct {
	threshold int
}

func (l testShopLoader) Profile(ctx context.Context) (*models.ShopProfile, error) {
	return &models.ShopProfile{ID: 1, Name: "Dukaan Test", State: "Karnataka", LowStockThreshold: l.threshold}, nil
}

type invoiceFixture struct {
	svc      Service
	conn     *gorm.DB
	products products.Repository
	alerts   notifications.Service
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	migrations := []interface{}{
		&models.Product{}, &models.Customer{}, &models.Invoice{},
		&models.InvoiceItem{}, &models.Payment{}, &models.Notification{},
	}
	if err := conn.AutoMigrate(migrations...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}

	productRepo := products.NewRepository(conn)
	alerts, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build alerts: %v", err)
	}
	svc, err := NewService(NewRepository(conn), testTxRunner{db: conn}, productRepo, testShopLoader{threshold: 5}, alerts)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return &invoiceFixture{svc: svc, conn: conn, products: productRepo, alerts: alerts}
}

func (f *invoiceFixture) seedProduct(t *testing.T, name string, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:           name,
		ListPrice:      dec(price),
		TaxRatePercent: dec("18"),
		Stock:          stock,
		IsActive:       true,
	}
	if err := f.conn.Create(product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func payloadFor(product *models.Product, qty int, paying string) billing.CheckoutPayload {
	line := billing.LineItem{
		ProductID:      product.ID,
		Name:           product.Name,
		HSN:            product.HSN,
		ListPrice:      product.ListPrice,
		SellingPrice:   product.ListPrice,
		Quantity:       qty,
		StockSnapshot:  product.Stock,
		TaxRatePercent: product.TaxRatePercent,
	}
	totals := billing.ComputeTotals([]billing.LineItem{line})
	return billing.CheckoutPayload{
		Items:           []billing.LineItem{line},
		SellingSubtotal: totals.SellingSubtotal,
		DiscountPercent: totals.DiscountPercent,
		Tax:             totals.Tax,
		TaxableValue:    totals.TaxableValue,
		PaymentMethod:   enums.PaymentMethodCash,
		PayingAmount:    dec(paying),
	}
}

func TestFinalizeFullyPaid(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Masala Tea", "118", 10)

	invoice, err := f.svc.Finalize(ctx, payloadFor(product, 2, "236"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(invoice.InvoiceNo, "INV-") {
		t.Fatalf("unexpected invoice number %q", invoice.InvoiceNo)
	}
	if invoice.Status != enums.InvoiceStatusPaid {
		t.Fatalf("expected PAID, got %s", invoice.Status)
	}
	if !invoice.SellingSubtotal.Equal(dec("236")) || !invoice.DueAmount.IsZero() {
		t.Fatalf("unexpected amounts: %+v", invoice)
	}
	if !invoice.TaxAmount.Equal(dec("36")) {
		t.Fatalf("expected tax 36, got %s", invoice.TaxAmount)
	}
	if len(invoice.Items) != 1 || invoice.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", invoice.Items)
	}
	if len(invoice.Payments) != 1 || !invoice.Payments[0].Amount.Equal(dec("236")) {
		t.Fatalf("expected one opening payment, got %+v", invoice.Payments)
	}

	fresh, err := f.products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.Stock != 8 {
		t.Fatalf("expected stock 8 after sale, got %d", fresh.Stock)
	}
}

func TestFinalizePartialPayment(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Rice 5kg", "400", 10)

	invoice, err := f.svc.Finalize(ctx, payloadFor(product, 1, "150"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusPartial {
		t.Fatalf("expected PARTIALLY_PAID, got %s", invoice.Status)
	}
	if !invoice.PaidAmount.Equal(dec("150")) || !invoice.DueAmount.Equal(dec("250")) {
		t.Fatalf("unexpected settlement: paid %s due %s", invoice.PaidAmount, invoice.DueAmount)
	}
}

func TestFinalizeOverpaymentClampsDue(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Sugar 1kg", "55", 10)

	invoice, err := f.svc.Finalize(ctx, payloadFor(product, 1, "100"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invoice.Status != enums.InvoiceStatusPaid || !invoice.DueAmount.IsZero() {
		t.Fatalf("expected settled invoice with zero due, got %+v", invoice)
	}
	if !invoice.PaidAmount.Equal(dec("100")) {
		t.Fatalf("expected recorded overpayment 100, got %s", invoice.PaidAmount)
	}
}

func TestFinalizeInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Coffee Powder", "300", 1)

	payload := payloadFor(product, 3, "900")
	_, err := f.svc.Finalize(ctx, payload)
	assertCode(t, err, pkgerrors.CodeConflict)

	var count int64
	if err := f.conn.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d invoices", count)
	}
	fresh, err := f.products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.Stock != 1 {
		t.Fatalf("expected untouched stock, got %d", fresh.Stock)
	}
}

func TestFinalizeEmitsLowStockAlert(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Ghee 500ml", "600", 6)

	if _, err := f.svc.Finalize(ctx, payloadFor(product, 2, "1200")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unread, err := f.alerts.CountUnread(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 1 {
		t.Fatalf("expected one low stock alert, got %d", unread)
	}
}

func TestFinalizeSequencesInvoiceNumbers(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Salt 1kg", "25", 50)

	first, err := f.svc.Finalize(ctx, payloadFor(product, 1, "25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.Finalize(ctx, payloadFor(product, 1, "25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(first.InvoiceNo, "-0001") || !strings.HasSuffix(second.InvoiceNo, "-0002") {
		t.Fatalf("unexpected numbering: %q then %q", first.InvoiceNo, second.InvoiceNo)
	}
}

func TestRecordPaymentSettlesInvoice(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Atta 10kg", "500", 10)

	invoice, err := f.svc.Finalize(ctx, payloadFor(product, 1, "200"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := f.svc.RecordPayment(ctx, invoice.ID, RecordPaymentInput{
		Amount: dec("100"),
		Method: enums.PaymentMethodUPI,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.InvoiceStatusPartial || !updated.DueAmount.Equal(dec("200")) {
		t.Fatalf("unexpected settlement: %+v", updated)
	}

	settled, err := f.svc.RecordPayment(ctx, invoice.ID, RecordPaymentInput{
		Amount: dec("200"),
		Method: enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Status != enums.InvoiceStatusPaid || !settled.DueAmount.IsZero() {
		t.Fatalf("expected settled invoice, got %+v", settled)
	}
	if len(settled.Payments) != 3 {
		t.Fatalf("expected 3 payments on record, got %d", len(settled.Payments))
	}

	_, err = f.svc.RecordPayment(ctx, invoice.ID, RecordPaymentInput{Amount: dec("1"), Method: enums.PaymentMethodCash})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRecordPaymentValidation(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Oil 1L", "150", 10)

	invoice, err := f.svc.Finalize(ctx, payloadFor(product, 1, "50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.RecordPayment(ctx, invoice.ID, RecordPaymentInput{Amount: dec("0"), Method: enums.PaymentMethodCash})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.RecordPayment(ctx, invoice.ID, RecordPaymentInput{Amount: dec("500"), Method: enums.PaymentMethodCash})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = f.svc.RecordPayment(ctx, uuid.New(), RecordPaymentInput{Amount: dec("10"), Method: enums.PaymentMethodCash})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListSalesAndDues(t *testing.T) {
	t.Parallel()

	f := newInvoiceFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Soap", "40", 50)

	if _, err := f.svc.Finalize(ctx, payloadFor(product, 1, "40")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Finalize(ctx, payloadFor(product, 1, "10")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sales, _, err := f.svc.ListSales(ctx, ListSalesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 invoices, got %d", len(sales))
	}

	dues, _, err := f.svc.ListDues(ctx, ListSalesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dues) != 1 || !dues[0].DueAmount.Equal(dec("30")) {
		t.Fatalf("expected one due invoice of 30, got %+v", dues)
	}
}
