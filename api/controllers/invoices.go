package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukaanhq/dukaan-backend/api/responses"
	"github.com/dukaanhq/dukaan-backend/api/validators"
	invoicesvc "github.com/dukaanhq/dukaan-backend/internal/invoices"
	"github.com/dukaanhq/dukaan-backend/pkg/db/models"
	"github.com/dukaanhq/dukaan-backend/pkg/enums"
	pkgerrors "github.com/dukaanhq/dukaan-backend/pkg/errors"
	"github.com/dukaanhq/dukaan-backend/pkg/logger"
	"github.com/dukaanhq/dukaan-backend/pkg/pagination"
	"github.com/dukaanhq/dukaan-backend/pkg/types"
)

// ListInvoices serves the sales register, newest first.
func ListInvoices(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return listInvoicesHandler(svc, logg, false)
}

// ListDues serves only invoices carrying an outstanding balance.
func ListDues(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return listInvoicesHandler(svc, logg, true)
}

func listInvoicesHandler(svc invoicesvc.Service, logg *logger.Logger, duesOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseListSalesInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			invoices []models.Invoice
			next     *pagination.Cursor
		)
		if duesOnly {
			invoices, next, err = svc.ListDues(r.Context(), input)
		} else {
			invoices, next, err = svc.ListSales(r.Context(), input)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]invoiceResponse, 0, len(invoices))
		for i := range invoices {
			items = append(items, newInvoiceResponse(&invoices[i]))
		}
		responses.WriteSuccess(w, newPageResponse(items, next))
	}
}

func parseListSalesInput(r *http.Request) (invoicesvc.ListSalesInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return invoicesvc.ListSalesInput{}, err
	}
	cursor, err := validators.ParseQueryCursor(r, "cursor")
	if err != nil {
		return invoicesvc.ListSalesInput{}, err
	}
	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return invoicesvc.ListSalesInput{}, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return invoicesvc.ListSalesInput{}, err
	}
	return invoicesvc.ListSalesInput{
		From:   from,
		To:     to,
		Limit:  limit,
		Cursor: cursor,
	}, nil
}

// GetInvoice returns one invoice with its items and payment history.
func GetInvoice(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := validators.ParsePathUUID(chi.URLParam(r, "invoiceId"), "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.GetByID(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

type recordPaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Method  string          `json:"method" validate:"required"`
	Remarks string          `json:"remarks"`
}

// RecordInvoicePayment settles part or all of an invoice's due amount.
func RecordInvoicePayment(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := validators.ParsePathUUID(chi.URLParam(r, "invoiceId"), "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		invoice, err := svc.RecordPayment(r.Context(), invoiceID, invoicesvc.RecordPaymentInput{
			Amount:  payload.Amount,
			Method:  method,
			Remarks: payload.Remarks,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

// SalesSummary aggregates the register over a date range, defaulting to the
// current day.
func SalesSummary(svc invoicesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fromParam, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toParam, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now()
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		to := from.AddDate(0, 0, 1)
		if fromParam != nil {
			from = *fromParam
		}
		if toParam != nil {
			// The upper bound is exclusive, so a "to" date covers that whole day.
			to = (*toParam).AddDate(0, 0, 1)
		}
		if !to.After(from) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date range is empty"))
			return
		}

		summary, err := svc.Summary(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, salesSummaryResponse{
			From:         from,
			To:           to,
			InvoiceCount: summary.InvoiceCount,
			TotalSales:   summary.TotalSales,
			TotalTax:     summary.TotalTax,
			TotalPaid:    summary.TotalPaid,
			TotalDue:     summary.TotalDue,
		})
	}
}

type salesSummaryResponse struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	InvoiceCount int64           `json:"invoice_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

type invoiceResponse struct {
	ID              uuid.UUID               `json:"id"`
	InvoiceNo       string                  `json:"invoice_no"`
	Customer        *customerResponse       `json:"customer,omitempty"`
	SellingSubtotal decimal.Decimal         `json:"selling_subtotal"`
	DiscountPercent decimal.Decimal         `json:"discount_percent"`
	TaxAmount       decimal.Decimal         `json:"tax_amount"`
	TaxableValue    decimal.Decimal         `json:"taxable_value"`
	TaxBreakup      types.TaxBreakupLines   `json:"tax_breakup,omitempty"`
	PaidAmount      decimal.Decimal         `json:"paid_amount"`
	DueAmount       decimal.Decimal         `json:"due_amount"`
	Status          string                  `json:"status"`
	PaymentMethod   string                  `json:"payment_method"`
	Remarks         *string                 `json:"remarks,omitempty"`
	Items           []invoiceItemResponse   `json:"items,omitempty"`
	Payments        []paymentListerResponse `json:"payments,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type invoiceItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	HSN             string          `json:"hsn,omitempty"`
	ListPrice       decimal.Decimal `json:"list_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Quantity        int             `json:"quantity"`
	TaxRatePercent  decimal.Decimal `json:"tax_rate_percent"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

type paymentListerResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Remarks   *string         `json:"remarks,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	items := make([]invoiceItemResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, invoiceItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Name:            item.Name,
			HSN:             item.HSN,
			ListPrice:       item.ListPrice,
			SellingPrice:    item.SellingPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
			TaxRatePercent:  item.TaxRatePercent,
			TaxAmount:       item.TaxAmount,
			LineTotal:       item.LineTotal,
		})
	}

	payments := make([]paymentListerResponse, 0, len(invoice.Payments))
	for _, payment := range invoice.Payments {
		payments = append(payments, paymentListerResponse{
			ID:        payment.ID,
			Amount:    payment.Amount,
			Method:    payment.Method.String(),
			Remarks:   payment.Remarks,
			CreatedAt: payment.CreatedAt,
		})
	}

	var customer *customerResponse
	if invoice.Customer != nil {
		mapped := newCustomerResponse(invoice.Customer)
		customer = &mapped
	}

	return invoiceResponse{
		ID:              invoice.ID,
		InvoiceNo:       invoice.InvoiceNo,
		Customer:        customer,
		SellingSubtotal: invoice.SellingSubtotal,
		DiscountPercent: invoice.DiscountPercent,
		TaxAmount:       invoice.TaxAmount,
		TaxableValue:    invoice.TaxableValue,
		TaxBreakup:      invoice.TaxBreakup,
		PaidAmount:      invoice.PaidAmount,
		DueAmount:       invoice.DueAmount,
		Status:          invoice.Status.String(),
		PaymentMethod:   invoice.PaymentMethod.String(),
		Remarks:         invoice.Remarks,
		Items:           items,
		Payments:        payments,
		CreatedAt:       invoice.CreatedAt,
	}
}
