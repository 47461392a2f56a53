package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxBreakupLine is one GST component of an invoice (for example "CGST @9%").
type TaxBreakupLine struct {
	Label  string          `json:"label"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxBreakupLines is the ordered breakup persisted as JSONB on an invoice.
type TaxBreakupLines []TaxBreakupLine

// Value serializes the breakup to JSON.
func (t TaxBreakupLines) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

// Scan decodes JSONB into the breakup slice.
func (t *TaxBreakupLines) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded TaxBreakupLines
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*t = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
