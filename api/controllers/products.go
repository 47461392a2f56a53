package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	productsvc "github.com/dukaanhq/dukaan-backend/internal/products"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
)

// ListProducts serves the catalog with optional search and active-only filtering.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		activeOnly, err := validators.ParseQueryBool(r, "active_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, next, err := svc.List(r.Context(), productsvc.ListProductsInput{
			Search:     r.URL.Query().Get("search"),
			ActiveOnly: activeOnly,
			Limit:      limit,
			Cursor:     cursor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(products))
		for i := range products {
			items = append(items, newProductResponse(&products[i]))
		}
		responses.WriteSuccess(w, newPageResponse(items, next))
	}
}

type createProductRequest struct {
	Name           string          `json:"name" validate:"required"`
	SKU            *string         `json:"sku"`
	HSN            string          `json:"hsn"`
	ListPrice      decimal.Decimal `json:"list_price" validate:"required"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Stock          int             `json:"stock"`
}

func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), productsvc.CreateProductInput{
			Name:           payload.Name,
			SKU:            payload.SKU,
			HSN:            payload.HSN,
			ListPrice:      payload.ListPrice,
			CostPrice:      payload.CostPrice,
			TaxRatePercent: payload.TaxRatePercent,
			Stock:          payload.Stock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type updateProductRequest struct {
	Name           *string          `json:"name"`
	SKU            *string          `json:"sku"`
	HSN            *string          `json:"hsn"`
	ListPrice      *decimal.Decimal `json:"list_price"`
	CostPrice      *decimal.Decimal `json:"cost_price"`
	TaxRatePercent *decimal.Decimal `json:"tax_rate_percent"`
	IsActive       *bool            `json:"is_active"`
}

func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, productsvc.UpdateProductInput{
			Name:           payload.Name,
			SKU:            payload.SKU,
			HSN:            payload.HSN,
			ListPrice:      payload.ListPrice,
			CostPrice:      payload.CostPrice,
			TaxRatePercent: payload.TaxRatePercent,
			IsActive:       payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustProductStock applies a signed correction to the stock count.
func AdjustProductStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.AdjustStock(r.Context(), productID, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	SKU            *string         `json:"sku,omitempty"`
	HSN            string          `json:"hsn,omitempty"`
	ListPrice      decimal.Decimal `json:"list_price"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Stock          int             `json:"stock"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newProductResponse(product *models.Product) productResponse {
	return productResponse{
		ID:             product.ID,
		Name:           product.Name,
		SKU:            product.SKU,
		HSN:            product.HSN,
		ListPrice:      product.ListPrice,
		CostPrice:      product.CostPrice,
		TaxRatePercent: product.TaxRatePercent,
		Stock:          product.Stock,
		IsActive:       product.IsActive,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}
