package customers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dukaanhq/dukaan-backend/pkg/db"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// GSTIN layout: state code, PAN, entity number, Z, checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

// Service exposes customer book operations.
type Service interface {
	Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, input ListCustomersInput) ([]models.Customer, *pagination.Cursor, error)
}

type service struct {
	repo Repository
}

// NewService builds a customer service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{repo: repo}, nil
}

// CreateCustomerInput captures the payload for a new customer record.
type CreateCustomerInput struct {
	Name      string
	Phone     string
	State     string
	GSTNumber *string
}

// UpdateCustomerInput carries partial customer updates. Nil fields are left
// untouched.
type UpdateCustomerInput struct {
	Name      *string
	Phone     *string
	State     *string
	GSTNumber *string
}

// ListCustomersInput filters and paginates the customer book.
type ListCustomersInput struct {
	Search string
	Limit  int
	Cursor *pagination.Cursor
}

// Create validates and persists a customer.
func (s *service) Create(ctx context.Context, input CreateCustomerInput) (*models.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if !phonePattern.MatchString(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be a 10 digit number")
	}
	gst, err := normalizeGSTIN(input.GSTNumber)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:      name,
		Phone:     phone,
		State:     strings.TrimSpace(input.State),
		GSTNumber: gst,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

// Update applies a partial update to the customer record.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*models.Customer, error) {
	customer, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
		}
		customer.Name = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if !phonePattern.MatchString(phone) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone must be a 10 digit number")
		}
		customer.Phone = phone
	}
	if input.State != nil {
		customer.State = strings.TrimSpace(*input.State)
	}
	if input.GSTNumber != nil {
		gst, err := normalizeGSTIN(input.GSTNumber)
		if err != nil {
			return nil, err
		}
		customer.GSTNumber = gst
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

// GetByID loads one customer.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

// List returns a page of customers matching the search.
func (s *service) List(ctx context.Context, input ListCustomersInput) ([]models.Customer, *pagination.Cursor, error) {
	items, next, err := s.repo.List(ctx, listCustomersParams{
		Search: strings.TrimSpace(input.Search),
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return items, next, nil
}

func normalizeGSTIN(gst *string) (*string, error) {
	if gst == nil {
		return nil, nil
	}
	trimmed := strings.ToUpper(strings.TrimSpace(*gst))
	if trimmed == "" {
		return nil, nil
	}
	if !gstinPattern.MatchString(trimmed) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid GST number")
	}
	return &trimmed, nil
}
