package domain

import "github.com/shopspring/decimal"

// Factory holds deployment-wide counters. There is one factory row per
// tracked deployment, keyed by the factory contract address.
//
// All counters except the TVL fields are monotonically non-decreasing;
// TVL rises and falls with pool balances.
type Factory struct {
	ID string

	TxCount int64

	VolumeETH          decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal

	FeesETH decimal.Decimal
	FeesUSD decimal.Decimal

	TotalValueLockedETH          decimal.Decimal
	TotalValueLockedUSD          decimal.Decimal
	TotalValueLockedETHUntracked decimal.Decimal
	TotalValueLockedUSDUntracked decimal.Decimal
}

// Clone returns a deep copy of the factory.
func (f *Factory) Clone() *Factory {
	c := *f
	return &c
}
