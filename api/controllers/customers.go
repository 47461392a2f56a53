package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	customersvc "github.com/dukaanhq/dukaan-backend/internal/customers"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// ListCustomers serves the customer book with optional name or phone search.
func ListCustomers(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor, err := validators.ParseQueryCursor(r, "cursor")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customers, next, err := svc.List(r.Context(), customersvc.ListCustomersInput{
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Cursor: cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]customerResponse, 0, len(customers))
		for i := range customers {
			items = append(items, newCustomerResponse(&customers[i]))
		}
		responses.WriteSuccess(w, newPageResponse(items, next))
	}
}

type createCustomerRequest struct {
	Name      string  `json:"name" validate:"required"`
	Phone     string  `json:"phone" validate:"required"`
	State     string  `json:"state" validate:"required"`
	GSTNumber *string `json:"gst_number"`
}

func CreateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Create(r.Context(), customersvc.CreateCustomerInput{
			Name:      payload.Name,
			Phone:     payload.Phone,
			State:     payload.State,
			GSTNumber: payload.GSTNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCustomerResponse(customer))
	}
}

func GetCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParsePathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.GetByID(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustomerResponse(customer))
	}
}

type updateCustomerRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	State     *string `json:"state"`
	GSTNumber *string `json:"gst_number"`
}

func UpdateCustomer(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParsePathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Update(r.Context(), customerID, customersvc.UpdateCustomerInput{
			Name:      payload.Name,
			Phone:     payload.Phone,
			State:     payload.State,
			GSTNumber: payload.GSTNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustomerResponse(customer))
	}
}

type customerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	State     string    `json:"state"`
	GSTNumber *string   `json:"gst_number,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newCustomerResponse(customer *models.Customer) customerResponse {
	return customerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Phone:     customer.Phone,
		State:     customer.State,
		GSTNumber: customer.GSTNumber,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}
