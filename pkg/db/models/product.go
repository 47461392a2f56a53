package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog item sold over the counter.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	SKU            *string         `gorm:"column:sku;uniqueIndex"`
	HSN            string          `gorm:"column:hsn;not null;default:''"`
	ListPrice      decimal.Decimal `gorm:"column:list_price;type:numeric(12,2);not null"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	TaxRatePercent decimal.Decimal `gorm:"column:tax_rate_percent;type:numeric(5,2);not null;default:0"`
	Stock          int             `gorm:"column:stock;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
