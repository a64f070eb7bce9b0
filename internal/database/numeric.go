package database

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NumericText renders an optional amount for a `$n::numeric` parameter.
func NumericText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// ParseNumeric reads a `column::text` NUMERIC value back into an amount.
func ParseNumeric(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}
