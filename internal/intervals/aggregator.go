package intervals

import (
	"context"
	"errors"
	"fmt"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// BucketSource resolves existing buckets by ID. The processor passes an
// overlay here so a bucket written earlier in the same uncommitted batch
// is visible before the store has it.
type BucketSource interface {
	GlobalDay(ctx context.Context, id string) (*domain.GlobalDayData, error)
	PoolDay(ctx context.Context, id string) (*domain.PoolDayData, error)
	PoolHour(ctx context.Context, id string) (*domain.PoolHourData, error)
	TokenDay(ctx context.Context, id string) (*domain.TokenDayData, error)
	TokenHour(ctx context.Context, id string) (*domain.TokenHourData, error)
}

// Aggregator seeds and refreshes the aggregation buckets.
type Aggregator struct {
	cfg *config.Config
	src BucketSource
}

// NewAggregator creates an aggregator reading existing buckets from src.
func NewAggregator(cfg *config.Config, src BucketSource) *Aggregator {
	return &Aggregator{cfg: cfg, src: src}
}

// TouchGlobalDay returns the current day's global bucket with its
// structural fields refreshed from the factory. The deployment-wide
// transaction count is copied through, not incremented here.
func (a *Aggregator) TouchGlobalDay(ctx context.Context, factory *domain.Factory, ts int64) (*domain.GlobalDayData, error) {
	id := GlobalDayID(ts)

	day, err := a.src.GlobalDay(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		day = &domain.GlobalDayData{ID: id, Date: DayStart(ts)}
	} else if err != nil {
		return nil, fmt.Errorf("load global day %s: %w", id, err)
	}

	day.TotalValueLockedUSD = factory.TotalValueLockedUSD
	day.TxCount = factory.TxCount
	return day, nil
}

// TouchPoolDay returns the pool's current day bucket with structure and
// OHLC refreshed from the pool. A fresh bucket opens at the pool's
// current token0 price; an existing one widens its high/low range and
// moves its close.
func (a *Aggregator) TouchPoolDay(ctx context.Context, pool *domain.Pool, ts int64) (*domain.PoolDayData, error) {
	id := PoolDayID(pool.ID, ts)

	day, err := a.src.PoolDay(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		day = &domain.PoolDayData{
			ID:   id,
			Date: DayStart(ts),
			Pool: pool.ID,
			Open: pool.Token0Price,
			High: pool.Token0Price,
			Low:  pool.Token0Price,
		}
	} else if err != nil {
		return nil, fmt.Errorf("load pool day %s: %w", id, err)
	}

	if pool.Token0Price.GreaterThan(day.High) {
		day.High = pool.Token0Price
	}
	if pool.Token0Price.LessThan(day.Low) {
		day.Low = pool.Token0Price
	}
	day.Close = pool.Token0Price

	day.Token0Price = pool.Token0Price
	day.Token1Price = pool.Token1Price
	day.Liquidity = pool.Liquidity
	day.SqrtPrice = pool.SqrtPrice
	day.Tick = pool.Tick
	day.FeeGrowthGlobal0X128 = pool.FeeGrowthGlobal0X128
	day.FeeGrowthGlobal1X128 = pool.FeeGrowthGlobal1X128
	day.TotalValueLockedUSD = pool.TotalValueLockedUSD
	day.TxCount++
	return day, nil
}

// TouchPoolHour is the hourly counterpart of TouchPoolDay.
func (a *Aggregator) TouchPoolHour(ctx context.Context, pool *domain.Pool, ts int64) (*domain.PoolHourData, error) {
	id := PoolHourID(pool.ID, ts)

	hour, err := a.src.PoolHour(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		hour = &domain.PoolHourData{
			ID:              id,
			PeriodStartUnix: HourStart(ts),
			Pool:            pool.ID,
			Open:            pool.Token0Price,
			High:            pool.Token0Price,
			Low:             pool.Token0Price,
		}
	} else if err != nil {
		return nil, fmt.Errorf("load pool hour %s: %w", id, err)
	}

	if pool.Token0Price.GreaterThan(hour.High) {
		hour.High = pool.Token0Price
	}
	if pool.Token0Price.LessThan(hour.Low) {
		hour.Low = pool.Token0Price
	}
	hour.Close = pool.Token0Price

	hour.Token0Price = pool.Token0Price
	hour.Token1Price = pool.Token1Price
	hour.Liquidity = pool.Liquidity
	hour.SqrtPrice = pool.SqrtPrice
	hour.Tick = pool.Tick
	hour.FeeGrowthGlobal0X128 = pool.FeeGrowthGlobal0X128
	hour.FeeGrowthGlobal1X128 = pool.FeeGrowthGlobal1X128
	hour.TotalValueLockedUSD = pool.TotalValueLockedUSD
	hour.TxCount++
	return hour, nil
}

// TouchTokenDay returns the token's current day bucket. TVL always
// copies through from the token; the USD price and OHLC fields update
// only when token-bucket pricing is enabled, staying zero otherwise.
func (a *Aggregator) TouchTokenDay(ctx context.Context, token *domain.Token, bundle *domain.Bundle, ts int64) (*domain.TokenDayData, error) {
	id := TokenDayID(token.ID, ts)

	day, err := a.src.TokenDay(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		day = &domain.TokenDayData{ID: id, Date: DayStart(ts), Token: token.ID}
		if a.cfg.TokenBucketPricing {
			priceUSD := token.DerivedETH.Mul(bundle.EthPriceUSD)
			day.Open = priceUSD
			day.High = priceUSD
			day.Low = priceUSD
		}
	} else if err != nil {
		return nil, fmt.Errorf("load token day %s: %w", id, err)
	}

	if a.cfg.TokenBucketPricing {
		priceUSD := token.DerivedETH.Mul(bundle.EthPriceUSD)
		if priceUSD.GreaterThan(day.High) {
			day.High = priceUSD
		}
		if priceUSD.LessThan(day.Low) {
			day.Low = priceUSD
		}
		day.Close = priceUSD
		day.PriceUSD = priceUSD
	}

	day.TotalValueLocked = token.TotalValueLocked
	day.TotalValueLockedUSD = token.TotalValueLockedUSD
	return day, nil
}

// TouchTokenHour is the hourly counterpart of TouchTokenDay.
func (a *Aggregator) TouchTokenHour(ctx context.Context, token *domain.Token, bundle *domain.Bundle, ts int64) (*domain.TokenHourData, error) {
	id := TokenHourID(token.ID, ts)

	hour, err := a.src.TokenHour(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		hour = &domain.TokenHourData{ID: id, PeriodStartUnix: HourStart(ts), Token: token.ID}
		if a.cfg.TokenBucketPricing {
			priceUSD := token.DerivedETH.Mul(bundle.EthPriceUSD)
			hour.Open = priceUSD
			hour.High = priceUSD
			hour.Low = priceUSD
		}
	} else if err != nil {
		return nil, fmt.Errorf("load token hour %s: %w", id, err)
	}

	if a.cfg.TokenBucketPricing {
		priceUSD := token.DerivedETH.Mul(bundle.EthPriceUSD)
		if priceUSD.GreaterThan(hour.High) {
			hour.High = priceUSD
		}
		if priceUSD.LessThan(hour.Low) {
			hour.Low = priceUSD
		}
		hour.Close = priceUSD
		hour.PriceUSD = priceUSD
	}

	hour.TotalValueLocked = token.TotalValueLocked
	hour.TotalValueLockedUSD = token.TotalValueLockedUSD
	return hour, nil
}
