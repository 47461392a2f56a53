package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
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
	if err := conn.AutoMigrate(&models.Customer{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func strPtr(value string) *string { return &value }

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestCreateCustomer(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCustomerInput{
		Name:      " Asha Rao ",
		Phone:     "9876543210",
		State:     "Karnataka",
		GSTNumber: strPtr("29abcde1234f1z5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Name != "Asha Rao" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.GSTNumber == nil || *created.GSTNumber != "29ABCDE1234F1Z5" {
		t.Fatalf("expected uppercased GSTIN, got %v", created.GSTNumber)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCustomerInput{Name: "", Phone: "9876543210"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateCustomerInput{Name: "A", Phone: "12345"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Create(ctx, CreateCustomerInput{Name: "A", Phone: "9876543210", GSTNumber: strPtr("NOT-A-GSTIN")})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCreateCustomerDuplicatePhone(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateCustomerInput{Name: "A", Phone: "9876543210"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Create(ctx, CreateCustomerInput{Name: "B", Phone: "9876543210"})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateCustomerPartial(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCustomerInput{Name: "Asha", Phone: "9876543210", State: "Karnataka"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateCustomerInput{State: strPtr("Kerala")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.State != "Kerala" || updated.Name != "Asha" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	// Blank GSTIN clears the stored value.
	withGST, err := svc.Update(ctx, created.ID, UpdateCustomerInput{GSTNumber: strPtr("29ABCDE1234F1Z5")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withGST.GSTNumber == nil {
		t.Fatal("expected stored GSTIN")
	}
	cleared, err := svc.Update(ctx, created.ID, UpdateCustomerInput{GSTNumber: strPtr("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleared.GSTNumber != nil {
		t.Fatalf("expected cleared GSTIN, got %v", cleared.GSTNumber)
	}

	_, err = svc.Update(ctx, uuid.New(), UpdateCustomerInput{Name: strPtr("Nobody")})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListCustomersSearch(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	seed := []CreateCustomerInput{
		{Name: "Asha Rao", Phone: "9876543210"},
		{Name: "Bhavesh Shah", Phone: "9876500000"},
		{Name: "Chitra Nair", Phone: "9000000001"},
	}
	for _, input := range seed {
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	byName, _, err := svc.List(ctx, ListCustomersInput{Search: "asha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// SQLite LIKE is case-insensitive for ASCII, matching the UI expectation.
	if len(byName) != 1 || byName[0].Name != "Asha Rao" {
		t.Fatalf("expected Asha Rao, got %+v", byName)
	}

	byPhone, _, err := svc.List(ctx, ListCustomersInput{Search: "98765"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byPhone) != 2 {
		t.Fatalf("expected 2 matches by phone prefix, got %d", len(byPhone))
	}
}
