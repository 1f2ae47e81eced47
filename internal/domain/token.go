package domain

import "github.com/shopspring/decimal"

// Token is an ERC-20 token that appears on at least one tracked pool.
// Keyed by the lowercase hex contract address.
type Token struct {
	ID       string
	Decimals int32

	// DerivedETH is the current ETH-denominated unit price, recomputed on
	// every swap that touches this token. Zero when no whitelist pool
	// qualifies (best-effort pricing, not an error).
	DerivedETH decimal.Decimal

	// WhitelistPools lists pools pairing this token with a whitelisted
	// token, in insertion order. Populated at pool creation time and read
	// only here. Iteration order is part of the pricing contract: the
	// first pool to reach the maximum ETH locked wins ties.
	WhitelistPools []string

	Volume             decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal
	FeesUSD            decimal.Decimal

	TotalValueLocked    decimal.Decimal
	TotalValueLockedUSD decimal.Decimal

	TxCount int64
}

// Clone returns a deep copy of the token.
func (t *Token) Clone() *Token {
	c := *t
	c.WhitelistPools = append([]string(nil), t.WhitelistPools...)
	return &c
}
