package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

// Invoice is a committed bill. Amounts are tax-inclusive rupee values except
// TaxableValue, which is the selling subtotal net of extracted GST.
type Invoice struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceNo       string                `gorm:"column:invoice_no;not null;uniqueIndex"`
	CustomerID      *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	Customer        *Customer             `gorm:"foreignKey:CustomerID"`
	SellingSubtotal decimal.Decimal       `gorm:"column:selling_subtotal;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal       `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	TaxAmount       decimal.Decimal       `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	TaxableValue    decimal.Decimal       `gorm:"column:taxable_value;type:numeric(12,2);not null;default:0"`
	TaxBreakup      types.TaxBreakupLines `gorm:"column:tax_breakup;type:jsonb"`
	PaidAmount      decimal.Decimal       `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	DueAmount       decimal.Decimal       `gorm:"column:due_amount;type:numeric(12,2);not null;default:0"`
	Status          enums.InvoiceStatus   `gorm:"column:status;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	Remarks         *string               `gorm:"column:remarks"`
	Items           []InvoiceItem         `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments        []Payment             `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem snapshots a cart line at the moment the bill was committed.
type InvoiceItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID       uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name            string          `gorm:"column:name;not null"`
	HSN             string          `gorm:"column:hsn;not null;default:''"`
	ListPrice       decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null"`
	SellingPrice    decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null;default:0"`
	Quantity        int             `gorm:"column:quantity;not null"`
	TaxRatePercent  decimal.Decimal `gorm:"column:tax_rate_percent;type:numeric(5,2);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	LineTotal       decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (i *InvoiceItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
