package domain

import "math/big"

// SwapEvent is a raw swap log as delivered by an ingestion source,
// before any pricing or aggregation. Amounts are the unscaled signed
// integers from the log payload.
type SwapEvent struct {
	Pool string

	TransactionID string
	BlockNumber   uint64
	BlockTime     int64
	TxIndex       int
	LogIndex      int

	Sender    string
	Origin    string
	Recipient string

	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

// Clone returns a deep copy of the event.
func (e *SwapEvent) Clone() *SwapEvent {
	c := *e
	c.Amount0 = cloneBig(e.Amount0)
	c.Amount1 = cloneBig(e.Amount1)
	c.SqrtPriceX96 = cloneBig(e.SqrtPriceX96)
	c.Liquidity = cloneBig(e.Liquidity)
	return &c
}
