package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func strPtr(value string) *string { return &value }

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:           "  Masala Tea 250g ",
		SKU:            strPtr("TEA-250"),
		HSN:            "0902",
		ListPrice:      dec("180"),
		CostPrice:      dec("120"),
		TaxRatePercent: dec("5"),
		Stock:          40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "Masala Tea 250g" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if !created.IsActive {
		t.Fatal("expected new product to be active")
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.ListPrice.Equal(dec("180")) || got.Stock != 40 {
		t.Fatalf("unexpected persisted product: %+v", got)
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductInput{Name: "  ", ListPrice: dec("10")})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{Name: "X", ListPrice: dec("-1")})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{Name: "X", ListPrice: dec("10"), TaxRatePercent: dec("101")})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateProductInput{Name: "X", ListPrice: dec("10"), Stock: -1})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateProductInput{Name: "A", SKU: strPtr("DUP-1"), ListPrice: dec("10")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Create(ctx, CreateProductInput{Name: "B", SKU: strPtr("DUP-1"), ListPrice: dec("20")})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateProductPartial(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Sugar 1kg", ListPrice: dec("55"), TaxRatePercent: dec("5"), Stock: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{
		ListPrice: decPtr("60"),
		IsActive:  &inactive,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.ListPrice.Equal(dec("60")) || updated.IsActive {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Name != "Sugar 1kg" {
		t.Fatalf("expected untouched name, got %q", updated.Name)
	}

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{ListPrice: decPtr("1")})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListProductsSearchAndPagination(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	names := []string{"Masala Tea", "Green Tea", "Coffee Powder"}
	for _, name := range names {
		if _, err := svc.Create(ctx, CreateProductInput{Name: name, ListPrice: dec("100")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	items, _, err := svc.List(ctx, ListProductsInput{Search: "Tea"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 tea products, got %d", len(items))
	}

	page, next, err := svc.List(ctx, ListProductsInput{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 || next == nil {
		t.Fatalf("expected a full first page with cursor, got %d items cursor=%v", len(page), next)
	}

	rest, finalCursor, err := svc.List(ctx, ListProductsInput{Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rest) != 1 || finalCursor != nil {
		t.Fatalf("expected final page of 1, got %d cursor=%v", len(rest), finalCursor)
	}
}

func TestListProductsActiveOnly(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	active, err := svc.Create(ctx, CreateProductInput{Name: "Active", ListPrice: dec("10")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retired, err := svc.Create(ctx, CreateProductInput{Name: "Retired", ListPrice: dec("10")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inactive := false
	if _, err := svc.Update(ctx, retired.ID, UpdateProductInput{IsActive: &inactive}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, _, err := svc.List(ctx, ListProductsInput{ActiveOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != active.ID {
		t.Fatalf("expected only the active product, got %+v", items)
	}
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{Name: "Rice 5kg", ListPrice: dec("400"), Stock: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.AdjustStock(ctx, created.ID, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Stock != 10 {
		t.Fatalf("expected stock 10, got %d", updated.Stock)
	}

	_, err = svc.AdjustStock(ctx, created.ID, -11)
	assertCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.AdjustStock(ctx, created.ID, 0)
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AdjustStock(ctx, uuid.New(), 1)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}
