package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer holds the buyer records the billing counter selects from.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone;not null;uniqueIndex"`
	State     string    `gorm:"column:state;not null;default:''"`
	GSTNumber *string   `gorm:"column:gst_number"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an identifier when the caller did not provide one.
func (c *Customer) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
