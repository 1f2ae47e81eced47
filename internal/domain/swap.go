package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Swap is the immutable record of one processed swap event.
//
// The identity is "<transactionID>#<poolTxCount>", which stays unique even
// when one transaction swaps several times against the same pool, because
// the pool transaction counter advances before the record is built.
type Swap struct {
	ID string

	TransactionID string
	Timestamp     int64

	Pool   string
	Token0 string
	Token1 string

	Sender    string
	Origin    string
	Recipient string

	// Amount0 and Amount1 are the signed token deltas of the swap
	// (one side paid in, one side paid out), in token units.
	Amount0   decimal.Decimal
	Amount1   decimal.Decimal
	AmountUSD decimal.Decimal

	SqrtPriceX96 *big.Int
	Tick         int32
	LogIndex     int
}

// Clone returns a deep copy of the swap record.
func (s *Swap) Clone() *Swap {
	c := *s
	c.SqrtPriceX96 = cloneBig(s.SqrtPriceX96)
	return &c
}
