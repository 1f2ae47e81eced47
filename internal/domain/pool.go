package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Pool is a concentrated-liquidity pool between two tokens.
// Keyed by the lowercase hex pool contract address.
type Pool struct {
	ID string

	Token0 string
	Token1 string

	// FeeTier is the swap fee in parts per million (e.g. 500 = 0.05%).
	FeeTier int64

	// Current AMM state, overwritten on every swap.
	Liquidity            *big.Int
	SqrtPrice            *big.Int
	Tick                 int32
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int

	// Spot prices derived from SqrtPrice. Token1Price is the amount of
	// token1 per unit of token0; Token0Price is its reciprocal.
	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	VolumeToken0       decimal.Decimal
	VolumeToken1       decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal
	FeesUSD            decimal.Decimal

	TotalValueLockedToken0       decimal.Decimal
	TotalValueLockedToken1       decimal.Decimal
	TotalValueLockedETH          decimal.Decimal
	TotalValueLockedUSD          decimal.Decimal
	TotalValueLockedETHUntracked decimal.Decimal
	TotalValueLockedUSDUntracked decimal.Decimal

	TxCount int64
}

// Clone returns a deep copy of the pool, including its big.Int state.
func (p *Pool) Clone() *Pool {
	c := *p
	c.Liquidity = cloneBig(p.Liquidity)
	c.SqrtPrice = cloneBig(p.SqrtPrice)
	c.FeeGrowthGlobal0X128 = cloneBig(p.FeeGrowthGlobal0X128)
	c.FeeGrowthGlobal1X128 = cloneBig(p.FeeGrowthGlobal1X128)
	return &c
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
