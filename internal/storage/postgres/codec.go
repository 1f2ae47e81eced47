package postgres

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals and big integers are stored as TEXT. NUMERIC would round-trip
// through the driver's float path for some scan targets, and the pricing
// invariants require the exact digits back.

func decToText(d decimal.Decimal) string {
	return d.String()
}

func textToDec(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

// bigToText returns nil for a nil big.Int so the column stores NULL.
func bigToText(v *big.Int) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func textToBig(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("parse big integer %q", *s)
	}
	return v, nil
}
