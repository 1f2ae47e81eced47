// Package intervals maintains the day and hour aggregation buckets.
// Buckets are keyed by scope and period index; the global scope omits
// the scope prefix. Touch methods bring a bucket's structural fields
// (prices, OHLC, liquidity, TVL, transaction counts) up to date; the
// caller adds volume and fee deltas afterwards.
package intervals

import (
	"fmt"

	"dex-market-indexer/internal/domain"
)

// DayIndex returns the UTC day index for a unix timestamp.
func DayIndex(ts int64) int64 {
	return ts / domain.DaySeconds
}

// DayStart returns the unix timestamp of the day's first second.
func DayStart(ts int64) int64 {
	return DayIndex(ts) * domain.DaySeconds
}

// HourIndex returns the hour index for a unix timestamp.
func HourIndex(ts int64) int64 {
	return ts / domain.HourSeconds
}

// HourStart returns the unix timestamp of the hour's first second.
func HourStart(ts int64) int64 {
	return HourIndex(ts) * domain.HourSeconds
}

// GlobalDayID keys the deployment-wide day bucket.
func GlobalDayID(ts int64) string {
	return fmt.Sprintf("%d", DayIndex(ts))
}

// PoolDayID keys a pool's day bucket.
func PoolDayID(pool string, ts int64) string {
	return fmt.Sprintf("%s-%d", pool, DayIndex(ts))
}

// PoolHourID keys a pool's hour bucket.
func PoolHourID(pool string, ts int64) string {
	return fmt.Sprintf("%s-%d", pool, HourIndex(ts))
}

// TokenDayID keys a token's day bucket.
func TokenDayID(token string, ts int64) string {
	return fmt.Sprintf("%s-%d", token, DayIndex(ts))
}

// TokenHourID keys a token's hour bucket.
func TokenHourID(token string, ts int64) string {
	return fmt.Sprintf("%s-%d", token, HourIndex(ts))
}
