// Package domain defines the entity and event types for the market indexer.
//
// All balances and prices use decimal.Decimal for precise arithmetic; raw
// on-chain integer quantities (amounts, sqrtPriceX96, liquidity) use big.Int.
// Floating point never appears on an accounting path.
package domain

import "github.com/shopspring/decimal"

// BundleID is the fixed identifier of the singleton Bundle row.
const BundleID = "1"

// Bundle holds the current global ETH price in USD. There is exactly one
// bundle; it is refreshed on every processed swap from the designated
// stable reference pool.
type Bundle struct {
	ID          string
	EthPriceUSD decimal.Decimal
}

// Clone returns a deep copy of the bundle.
func (b *Bundle) Clone() *Bundle {
	c := *b
	return &c
}
