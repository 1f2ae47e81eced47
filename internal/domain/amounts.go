package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// divPrecision is the scale used for exact-quotient divisions. Raw
// on-chain amounts fit in 256 bits, so 38 fractional digits keeps every
// quotient we form well inside decimal's coefficient range.
const divPrecision = 38

// ConvertTokenToDecimal scales a raw integer token amount down by the
// token's decimals. A nil amount converts to zero.
func ConvertTokenToDecimal(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// SafeDiv divides a by b, returning zero when b is zero instead of
// panicking. Division by zero is an expected state here (fresh pools
// report a zero price), not an error.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, divPrecision)
}
