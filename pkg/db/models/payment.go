package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/enums"
)

// Payment is a single settlement recorded against an invoice.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceID uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;index"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Method    enums.PaymentMethod `gorm:"column:method;not null"`
	Remarks   *string             `gorm:"column:remarks"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
