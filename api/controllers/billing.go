package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	billingsvc "github.com/dukaanhq/dukaan-backend/internal/billing"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

// BillingStartSession opens a fresh counter session.
func BillingStartSession(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := svc.StartSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logg.Info(logg.WithSessionID(r.Context(), snapshot.ID.String()), "billing.session_started")
		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(snapshot))
	}
}

// BillingGetSession returns the current state of an open session.
func BillingGetSession(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.GetSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

type addItemRequest struct {
	ProductID    uuid.UUID        `json:"product_id" validate:"required"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Quantity     int              `json:"quantity"`
}

// BillingAddItem adds a product to the cart, merging with an existing line
// when the selling price matches.
func BillingAddItem(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}

		snapshot, err := svc.AddItem(r.Context(), sessionID, payload.ProductID, payload.SellingPrice, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

type lineMutation func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error)

func billingLineHandler(svc billingsvc.Service, logg *logger.Logger, mutate lineMutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := mutate(svc, r, sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

func BillingIncrementItem(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return billingLineHandler(svc, logg, func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error) {
		return svc.IncrementItem(r.Context(), sessionID, productID)
	})
}

func BillingDecrementItem(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return billingLineHandler(svc, logg, func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error) {
		return svc.DecrementItem(r.Context(), sessionID, productID)
	})
}

func BillingRemoveItem(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return billingLineHandler(svc, logg, func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error) {
		return svc.RemoveItem(r.Context(), sessionID, productID)
	})
}

type setDiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// BillingSetItemDiscount repoints a line's discount percentage, recomputing
// its selling price from the list price.
func BillingSetItemDiscount(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return billingLineHandler(svc, logg, func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error) {
		var payload setDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return billingsvc.Snapshot{}, err
		}
		return svc.SetItemDiscount(r.Context(), sessionID, productID, payload.DiscountPercent)
	})
}

func BillingClearItemDiscount(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return billingLineHandler(svc, logg, func(svc billingsvc.Service, r *http.Request, sessionID, productID uuid.UUID) (billingsvc.Snapshot, error) {
		return svc.ClearItemDiscount(r.Context(), sessionID, productID)
	})
}

type selectCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id" validate:"required"`
}

// BillingSelectCustomer attaches a customer to the session, which fixes the
// place-of-supply used for the tax breakup.
func BillingSelectCustomer(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload selectCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.SelectCustomer(r.Context(), sessionID, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

type setPayingAmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BillingSetPayingAmount pins the paying amount manually. It stops tracking
// the subtotal until the session is cleared.
func BillingSetPayingAmount(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setPayingAmountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.SetPayingAmount(r.Context(), sessionID, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

type setPaymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

func BillingSetPaymentMethod(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		snapshot, err := svc.SetPaymentMethod(r.Context(), sessionID, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

type setRemarksRequest struct {
	Remarks string `json:"remarks"`
}

func BillingSetRemarks(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setRemarksRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snapshot, err := svc.SetRemarks(r.Context(), sessionID, payload.Remarks)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(snapshot))
	}
}

// BillingCheckout finalizes the session into a persisted invoice. The session
// is dropped only after the invoice commits.
func BillingCheckout(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Checkout(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		logCtx := logg.WithSessionID(r.Context(), sessionID.String())
		logg.Info(logg.WithInvoiceNo(logCtx, invoice.InvoiceNo), "billing.checkout_completed")
		responses.WriteSuccessStatus(w, http.StatusCreated, newInvoiceResponse(invoice))
	}
}

// BillingAbandonSession discards the session without billing anything.
func BillingAbandonSession(svc billingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := validators.ParsePathUUID(chi.URLParam(r, "sessionId"), "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Abandon(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "abandoned"})
	}
}

type sessionResponse struct {
	ID              uuid.UUID                `json:"id"`
	State           string                   `json:"state"`
	Lines           []sessionLineResponse    `json:"lines"`
	ActualSubtotal  decimal.Decimal          `json:"actual_subtotal"`
	SellingSubtotal decimal.Decimal          `json:"selling_subtotal"`
	DiscountPercent decimal.Decimal          `json:"discount_percent"`
	Tax             decimal.Decimal          `json:"tax"`
	TaxableValue    decimal.Decimal          `json:"taxable_value"`
	TaxBreakup      types.TaxBreakupLines    `json:"tax_breakup,omitempty"`
	Customer        *sessionCustomerResponse `json:"customer,omitempty"`
	PaymentMethod   string                   `json:"payment_method"`
	Remarks         string                   `json:"remarks,omitempty"`
	PayingAmount    decimal.Decimal          `json:"paying_amount"`
	RemainingAmount decimal.Decimal          `json:"remaining_amount"`
	ManualPayment   bool                     `json:"manual_payment"`
}

type sessionLineResponse struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	HSN             string          `json:"hsn,omitempty"`
	ListPrice       decimal.Decimal `json:"list_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	StockSnapshot   int             `json:"stock_snapshot"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
}

type sessionCustomerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	State     string    `json:"state"`
	GSTNumber string    `json:"gst_number,omitempty"`
}

func newSessionResponse(snapshot billingsvc.Snapshot) sessionResponse {
	lines := make([]sessionLineResponse, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		lines = append(lines, sessionLineResponse{
			ProductID:       line.ProductID,
			Name:            line.Name,
			HSN:             line.HSN,
			ListPrice:       line.ListPrice,
			SellingPrice:    line.SellingPrice,
			DiscountPercent: line.DiscountPercent,
			Quantity:        line.Quantity,
			StockSnapshot:   line.StockSnapshot,
			TaxRatePercent:  line.TaxRatePercent,
		})
	}

	var customer *sessionCustomerResponse
	if snapshot.Customer != nil {
		customer = &sessionCustomerResponse{
			ID:        snapshot.Customer.ID,
			Name:      snapshot.Customer.Name,
			Phone:     snapshot.Customer.Phone,
			State:     snapshot.Customer.State,
			GSTNumber: snapshot.Customer.GSTNumber,
		}
	}

	return sessionResponse{
		ID:              snapshot.ID,
		State:           string(snapshot.State),
		Lines:           lines,
		ActualSubtotal:  snapshot.Totals.ActualSubtotal,
		SellingSubtotal: snapshot.Totals.SellingSubtotal,
		DiscountPercent: snapshot.Totals.DiscountPercent,
		Tax:             snapshot.Totals.Tax,
		TaxableValue:    snapshot.Totals.TaxableValue,
		TaxBreakup:      snapshot.TaxBreakup,
		Customer:        customer,
		PaymentMethod:   snapshot.PaymentMethod.String(),
		Remarks:         snapshot.Remarks,
		PayingAmount:    snapshot.PayingAmount,
		RemainingAmount: snapshot.RemainingAmount,
		ManualPayment:   snapshot.ManualPayment,
	}
}
