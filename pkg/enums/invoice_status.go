package enums

import "fmt"

// InvoiceStatus tracks settlement of a committed invoice.
type InvoiceStatus string

const (
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusPartial InvoiceStatus = "PARTIALLY_PAID"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPaid,
	InvoiceStatusPartial,
}

// String implements fmt.Stringer.
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (s InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into an InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
