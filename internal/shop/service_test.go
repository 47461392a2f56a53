package shop

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/config"
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
	if err := conn.AutoMigrate(&models.ShopProfile{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	svc, err := NewService(conn)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc
}

func strPtr(value string) *string { return &value }

func TestProfileNotConfigured(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	_, err := svc.Profile(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestSeedAndProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	cfg := config.ShopConfig{
		Name:              "Dukaan Stores",
		State:             "Karnataka",
		GSTNumber:         "29abcde1234f1z5",
		Address:           "12 MG Road, Bengaluru",
		LowStockThreshold: 5,
	}
	if err := svc.Seed(ctx, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Dukaan Stores" || profile.State != "Karnataka" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.GSTNumber != "29ABCDE1234F1Z5" {
		t.Fatalf("expected uppercased GSTIN, got %q", profile.GSTNumber)
	}

	// A second seed must not clobber the existing row.
	cfg.Name = "Other Name"
	if err := svc.Seed(ctx, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile, err = svc.Profile(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Dukaan Stores" {
		t.Fatalf("expected seed to be idempotent, got %q", profile.Name)
	}
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Seed(ctx, config.ShopConfig{Name: "Dukaan", State: "Karnataka", LowStockThreshold: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	threshold := 10
	updated, err := svc.Update(ctx, UpdateProfileInput{
		State:             strPtr("Kerala"),
		LowStockThreshold: &threshold,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.State != "Kerala" || updated.LowStockThreshold != 10 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Name != "Dukaan" {
		t.Fatalf("expected untouched name, got %q", updated.Name)
	}

	_, err = svc.Update(ctx, UpdateProfileInput{State: strPtr(" ")})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	negative := -1
	_, err = svc.Update(ctx, UpdateProfileInput{LowStockThreshold: &negative})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
