package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// Repository exposes persistence helpers for invoices and their settlements.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params listInvoicesParams) ([]models.Invoice, *pagination.Cursor, error)
	CountForDay(ctx context.Context, day time.Time) (int64, error)
	AddPayment(ctx context.Context, payment *models.Payment) error
	UpdateSettlement(ctx context.Context, invoice *models.Invoice) error
	SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listInvoicesParams struct {
	DuesOnly bool
	From     *time.Time
	To       *time.Time
	Limit    int
	Cursor   *pagination.Cursor
}

// SalesSummary aggregates the register over a period.
type SalesSummary struct {
	InvoiceCount int64
	TotalSales   decimal.Decimal
	TotalTax     decimal.Decimal
	TotalPaid    decimal.Decimal
	TotalDue     decimal.Decimal
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Preload("Customer").
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listInvoicesParams) ([]models.Invoice, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Preload("Customer")
	if params.DuesOnly {
		query = query.Where("due_amount > 0")
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&invoices).Error; err != nil {
		return nil, nil, err
	}

	if len(invoices) > normalized {
		next := invoices[normalized]
		invoices = invoices[:normalized]
		return invoices, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return invoices, nil, nil
}

func (r *repositoryImpl) CountForDay(ctx context.Context, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) AddPayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repositoryImpl) UpdateSettlement(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Updates(map[string]interface{}{
			"paid_amount": invoice.PaidAmount,
			"due_amount":  invoice.DueAmount,
			"status":      invoice.Status,
		}).Error
}

func (r *repositoryImpl) SalesSummary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	var rows []models.Invoice
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Find(&rows).Error
	if err != nil {
		return SalesSummary{}, err
	}

	summary := SalesSummary{InvoiceCount: int64(len(rows))}
	for _, row := range rows {
		summary.TotalSales = summary.TotalSales.Add(row.SellingSubtotal)
		summary.TotalTax = summary.TotalTax.Add(row.TaxAmount)
		summary.TotalPaid = summary.TotalPaid.Add(row.PaidAmount)
		summary.TotalDue = summary.TotalDue.Add(row.DueAmount)
	}
	return summary, nil
}
