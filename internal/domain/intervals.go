package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Time-bucket period lengths in seconds.
const (
	DaySeconds  int64 = 86400
	HourSeconds int64 = 3600
)

// GlobalDayData aggregates deployment-wide figures over one UTC day.
// Keyed by the day index alone (no scope prefix for the global scope).
type GlobalDayData struct {
	ID   string
	Date int64

	VolumeETH          decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal
	FeesUSD            decimal.Decimal

	TotalValueLockedUSD decimal.Decimal
	TxCount             int64
}

// Clone returns a deep copy of the record.
func (d *GlobalDayData) Clone() *GlobalDayData {
	c := *d
	return &c
}

// PoolDayData aggregates one pool's figures over one UTC day,
// keyed "<pool>-<dayIndex>". OHLC fields track the pool's token0 price.
type PoolDayData struct {
	ID   string
	Date int64
	Pool string

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	Liquidity            *big.Int
	SqrtPrice            *big.Int
	Tick                 int32
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int

	TotalValueLockedUSD decimal.Decimal

	VolumeToken0 decimal.Decimal
	VolumeToken1 decimal.Decimal
	VolumeUSD    decimal.Decimal
	FeesUSD      decimal.Decimal

	TxCount int64
}

// Clone returns a deep copy of the record, including its big.Int state.
func (d *PoolDayData) Clone() *PoolDayData {
	c := *d
	c.Liquidity = cloneBig(d.Liquidity)
	c.SqrtPrice = cloneBig(d.SqrtPrice)
	c.FeeGrowthGlobal0X128 = cloneBig(d.FeeGrowthGlobal0X128)
	c.FeeGrowthGlobal1X128 = cloneBig(d.FeeGrowthGlobal1X128)
	return &c
}

// PoolHourData is the hourly counterpart of PoolDayData,
// keyed "<pool>-<hourIndex>".
type PoolHourData struct {
	ID              string
	PeriodStartUnix int64
	Pool            string

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	Liquidity            *big.Int
	SqrtPrice            *big.Int
	Tick                 int32
	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int

	TotalValueLockedUSD decimal.Decimal

	VolumeToken0 decimal.Decimal
	VolumeToken1 decimal.Decimal
	VolumeUSD    decimal.Decimal
	FeesUSD      decimal.Decimal

	TxCount int64
}

// Clone returns a deep copy of the record, including its big.Int state.
func (d *PoolHourData) Clone() *PoolHourData {
	c := *d
	c.Liquidity = cloneBig(d.Liquidity)
	c.SqrtPrice = cloneBig(d.SqrtPrice)
	c.FeeGrowthGlobal0X128 = cloneBig(d.FeeGrowthGlobal0X128)
	c.FeeGrowthGlobal1X128 = cloneBig(d.FeeGrowthGlobal1X128)
	return &c
}

// TokenDayData aggregates one token's figures over one UTC day,
// keyed "<token>-<dayIndex>". OHLC fields track the token's USD price
// when token-bucket pricing is enabled, and stay zero otherwise.
type TokenDayData struct {
	ID    string
	Date  int64
	Token string

	Volume             decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal
	FeesUSD            decimal.Decimal

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	PriceUSD            decimal.Decimal
	TotalValueLocked    decimal.Decimal
	TotalValueLockedUSD decimal.Decimal
}

// Clone returns a deep copy of the record.
func (d *TokenDayData) Clone() *TokenDayData {
	c := *d
	return &c
}

// TokenHourData is the hourly counterpart of TokenDayData,
// keyed "<token>-<hourIndex>".
type TokenHourData struct {
	ID              string
	PeriodStartUnix int64
	Token           string

	Volume             decimal.Decimal
	VolumeUSD          decimal.Decimal
	VolumeUSDUntracked decimal.Decimal
	FeesUSD            decimal.Decimal

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	PriceUSD            decimal.Decimal
	TotalValueLocked    decimal.Decimal
	TotalValueLockedUSD decimal.Decimal
}

// Clone returns a deep copy of the record.
func (d *TokenHourData) Clone() *TokenHourData {
	c := *d
	return &c
}
