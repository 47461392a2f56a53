package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/config"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
)

// The profile is a singleton row keyed by a fixed identifier.
const profileID = 1

// Service exposes the shop settings surface. The stored state decides the
// CGST/SGST versus IGST split for every sale.
type Service interface {
	Profile(ctx context.Context) (*models.ShopProfile, error)
	Update(ctx context.Context, input UpdateProfileInput) (*models.ShopProfile, error)
	Seed(ctx context.Context, cfg config.ShopConfig) error
}

type service struct {
	db *gorm.DB
}

// NewService builds a shop settings service bound to the provided database.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db}, nil
}

// UpdateProfileInput carries partial profile updates. Nil fields are left
// untouched.
type UpdateProfileInput struct {
	Name              *string
	State             *string
	GSTNumber         *string
	Address           *string
	LowStockThreshold *int
}

// Profile returns the singleton settings row.
func (s *service) Profile(ctx context.Context) (*models.ShopProfile, error) {
	var profile models.ShopProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop profile not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop profile")
	}
	return &profile, nil
}

// Update applies a partial update to the profile.
func (s *service) Update(ctx context.Context, input UpdateProfileInput) (*models.ShopProfile, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
		}
		profile.Name = name
	}
	if input.State != nil {
		state := strings.TrimSpace(*input.State)
		if state == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop state is required")
		}
		profile.State = state
	}
	if input.GSTNumber != nil {
		profile.GSTNumber = strings.ToUpper(strings.TrimSpace(*input.GSTNumber))
	}
	if input.Address != nil {
		profile.Address = strings.TrimSpace(*input.Address)
	}
	if input.LowStockThreshold != nil {
		if *input.LowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must be non-negative")
		}
		profile.LowStockThreshold = *input.LowStockThreshold
	}

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shop profile")
	}
	return profile, nil
}

// Seed writes the configured profile on first boot. An existing row wins over
// the configuration.
func (s *service) Seed(ctx context.Context, cfg config.ShopConfig) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ShopProfile{}).Where("id = ?", profileID).Count(&count).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check shop profile")
	}
	if count > 0 {
		return nil
	}

	profile := &models.ShopProfile{
		ID:                profileID,
		Name:              cfg.Name,
		State:             cfg.State,
		GSTNumber:         strings.ToUpper(strings.TrimSpace(cfg.GSTNumber)),
		Address:           cfg.Address,
		LowStockThreshold: cfg.LowStockThreshold,
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed shop profile")
	}
	return nil
}
