package models

import "time"

// ShopProfile is the single settings row describing the shop itself. The state
// value decides whether a sale is intra-state (CGST+SGST) or inter-state (IGST).
type ShopProfile struct {
	ID                int       `gorm:"column:id;primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	State             string    `gorm:"column:state;not null;default:''"`
	GSTNumber         string    `gorm:"column:gst_number;not null;default:''"`
	Address           string    `gorm:"column:address;not null;default:''"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:5"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
