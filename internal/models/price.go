package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Price is the parsed form of a free-form feed price such as "299.00 NOK".
type Price struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// ParsePrice reads "<amount> [currency]". The stored price text is never rewritten;
// this only feeds read-back responses.
func ParsePrice(raw *string) (*Price, bool) {
	if raw == nil {
		return nil, false
	}

	fields := strings.Fields(*raw)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, false
	}

	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return nil, false
	}

	price := &Price{Amount: amount}
	if len(fields) == 2 {
		price.Currency = strings.ToUpper(fields[1])
	}
	return price, true
}
