package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, input ListProductsInput) ([]models.Product, *pagination.Cursor, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// CreateProductInput captures the payload for a new catalog item.
type CreateProductInput struct {
	Name           string
	SKU            *string
	HSN            string
	ListPrice      decimal.Decimal
	CostPrice      decimal.Decimal
	TaxRatePercent decimal.Decimal
	Stock          int
}

// UpdateProductInput carries partial catalog updates. Nil fields are left
// untouched.
type UpdateProductInput struct {
	Name           *string
	SKU            *string
	HSN            *string
	ListPrice      *decimal.Decimal
	CostPrice      *decimal.Decimal
	TaxRatePercent *decimal.Decimal
	IsActive       *bool
}

// ListProductsInput filters and paginates the catalog.
type ListProductsInput struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Cursor     *pagination.Cursor
}

// Create validates and persists a catalog item.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.ListPrice.IsNegative() || input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	}
	if err := validateTaxRate(input.TaxRatePercent); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	product := &models.Product{
		Name:           name,
		SKU:            normalizeSKU(input.SKU),
		HSN:            strings.TrimSpace(input.HSN),
		ListPrice:      input.ListPrice,
		CostPrice:      input.CostPrice,
		TaxRatePercent: input.TaxRatePercent,
		Stock:          input.Stock,
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

// Update applies a partial update to the product.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.SKU != nil {
		product.SKU = normalizeSKU(input.SKU)
	}
	if input.HSN != nil {
		product.HSN = strings.TrimSpace(*input.HSN)
	}
	if input.ListPrice != nil {
		if input.ListPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "list price must be non-negative")
		}
		product.ListPrice = *input.ListPrice
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price must be non-negative")
		}
		product.CostPrice = *input.CostPrice
	}
	if input.TaxRatePercent != nil {
		if err := validateTaxRate(*input.TaxRatePercent); err != nil {
			return nil, err
		}
		product.TaxRatePercent = *input.TaxRatePercent
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

// GetByID loads one product.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

// List returns a page of products matching the filters.
func (s *service) List(ctx context.Context, input ListProductsInput) ([]models.Product, *pagination.Cursor, error) {
	items, next, err := s.repo.List(ctx, listProductsParams{
		Search:     strings.TrimSpace(input.Search),
		ActiveOnly: input.ActiveOnly,
		Limit:      input.Limit,
		Cursor:     input.Cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return items, next, nil
}

// AdjustStock applies a signed stock correction and returns the fresh row.
// Corrections that would push the stock negative are rejected.
func (s *service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock adjustment cannot be zero")
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Stock+delta < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d in stock", product.Stock))
	}

	affected, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return s.GetByID(ctx, id)
}

func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be between 0 and 100")
	}
	return nil
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
