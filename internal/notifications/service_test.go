package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, conn
}

func TestNotifyLowStock(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	healthy := &models.Product{ID: uuid.New(), Name: "Sugar 1kg", Stock: 20}
	if err := svc.NotifyLowStock(ctx, conn, healthy, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	low := &models.Product{ID: uuid.New(), Name: "Masala Tea", Stock: 3}
	if err := svc.NotifyLowStock(ctx, conn, low, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gone := &models.Product{ID: uuid.New(), Name: "Coffee Powder", Stock: 0}
	if err := svc.NotifyLowStock(ctx, conn, gone, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, _, err := svc.List(ctx, ListNotificationsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(items))
	}
	types := map[enums.NotificationType]bool{}
	for _, item := range items {
		types[item.Type] = true
	}
	if !types[enums.NotificationTypeLowStock] || !types[enums.NotificationTypeOutOfStock] {
		t.Fatalf("expected low and out of stock alerts, got %+v", items)
	}
}

func TestMarkReadFlow(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		product := &models.Product{ID: uuid.New(), Name: name, Stock: 1}
		if err := svc.NotifyLowStock(ctx, conn, product, 5); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	unread, err := svc.CountUnread(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 3 {
		t.Fatalf("expected 3 unread, got %d", unread)
	}

	items, _, err := svc.List(ctx, ListNotificationsInput{UnreadOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.MarkRead(ctx, items[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	unread, err = svc.CountUnread(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread != 2 {
		t.Fatalf("expected 2 unread after mark, got %d", unread)
	}

	affected, err := svc.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 rows marked, got %d", affected)
	}

	err = svc.MarkRead(ctx, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
