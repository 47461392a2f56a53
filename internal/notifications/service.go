package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// Service exposes back-office alerts.
type Service interface {
	NotifyLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, threshold int) error
	List(ctx context.Context, input ListNotificationsInput) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
	CountUnread(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
}

// NewService builds a notification service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{repo: repo}, nil
}

// ListNotificationsInput filters and paginates the alert feed.
type ListNotificationsInput struct {
	UnreadOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// NotifyLowStock records an alert when the product's stock falls to or below
// the threshold. At zero the alert escalates to out-of-stock. It participates
// in the caller's transaction so the alert lands with the stock movement.
func (s *service) NotifyLowStock(ctx context.Context, tx *gorm.DB, product *models.Product, threshold int) error {
	if product == nil || product.Stock > threshold {
		return nil
	}

	kind := enums.NotificationTypeLowStock
	message := fmt.Sprintf("%s is running low: %d left", product.Name, product.Stock)
	if product.Stock <= 0 {
		kind = enums.NotificationTypeOutOfStock
		message = fmt.Sprintf("%s is out of stock", product.Name)
	}

	productID := product.ID
	notification := &models.Notification{
		Type:      kind,
		Message:   message,
		ProductID: &productID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock alert")
	}
	return nil
}

// List returns a page of alerts, newest first.
func (s *service) List(ctx context.Context, input ListNotificationsInput) ([]models.Notification, *pagination.Cursor, error) {
	items, next, err := s.repo.List(ctx, listNotificationsParams{
		UnreadOnly: input.UnreadOnly,
		Limit:      input.Limit,
		Cursor:     input.Cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return items, next, nil
}

// MarkRead flags one alert as read.
func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	affected, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread alert and reports how many changed.
func (s *service) MarkAllRead(ctx context.Context) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return affected, nil
}

// CountUnread returns the unread badge count.
func (s *service) CountUnread(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}
	return count, nil
}
