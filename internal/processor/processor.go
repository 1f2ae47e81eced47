// Package processor turns raw swap events into committed entity state.
// Each event is processed against a snapshot of the store, every write
// is collected into one batch, and the batch commits only if the whole
// computation succeeded. A failed event leaves state byte-identical to
// never having seen it, which is what makes replay deterministic.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/intervals"
	"dex-market-indexer/internal/pricing"
	"dex-market-indexer/internal/storage"
)

// Processing errors. Callers distinguish skips from failures with errors.Is.
var (
	// ErrPoolDenied marks a swap on a deny-listed pool. The event is
	// dropped without touching any entity.
	ErrPoolDenied = errors.New("pool is deny-listed")

	// ErrMissingEntity marks a swap referencing a pool, token, factory
	// or bundle the store has never seen.
	ErrMissingEntity = errors.New("missing entity")
)

// half splits a swap's two-leg total; multiplying by it is exact where
// a decimal divide would round.
var half = decimal.New(5, -1)

// Processor applies swap events to the entity store.
type Processor struct {
	store  storage.EntityStore
	cfg    *config.Config
	oracle *pricing.Oracle
}

// New creates a processor writing through the given store.
func New(store storage.EntityStore, cfg *config.Config) *Processor {
	return &Processor{
		store:  store,
		cfg:    cfg,
		oracle: pricing.NewOracle(cfg),
	}
}

// ProcessSwap processes one raw event and commits the resulting batch.
// Returns ErrPoolDenied for deny-listed pools and ErrMissingEntity when
// the referenced entities are not seeded; in both cases, and on any
// other error, no state changes.
func (p *Processor) ProcessSwap(ctx context.Context, event *domain.SwapEvent) error {
	batch, err := p.ComputeSwap(ctx, event)
	if err != nil {
		return err
	}
	if err := p.store.ApplyBatch(ctx, batch); err != nil {
		return fmt.Errorf("commit swap %s#%d: %w", event.TransactionID, event.LogIndex, err)
	}
	return nil
}

// ComputeSwap runs the full swap computation and returns the batch of
// writes without committing it.
func (p *Processor) ComputeSwap(ctx context.Context, event *domain.SwapEvent) (*storage.Batch, error) {
	if p.cfg.PoolPolicyFor(event.Pool) == config.PolicyDeny {
		return nil, fmt.Errorf("pool %s: %w", event.Pool, ErrPoolDenied)
	}

	// Work on a private copy so batch entities never alias the
	// caller's big.Int state.
	event = event.Clone()

	batch := storage.NewBatch()
	ov := &overlay{store: p.store, batch: batch}

	bundle, err := p.store.GetBundle(ctx)
	if err != nil {
		return nil, missing("bundle", domain.BundleID, err)
	}
	factory, err := p.store.GetFactory(ctx, p.cfg.FactoryAddress)
	if err != nil {
		return nil, missing("factory", p.cfg.FactoryAddress, err)
	}
	pool, err := p.store.GetPool(ctx, event.Pool)
	if err != nil {
		return nil, missing("pool", event.Pool, err)
	}
	token0, err := p.store.GetToken(ctx, pool.Token0)
	if err != nil {
		return nil, missing("token", pool.Token0, err)
	}
	token1, err := p.store.GetToken(ctx, pool.Token1)
	if err != nil {
		return nil, missing("token", pool.Token1, err)
	}

	amount0 := domain.ConvertTokenToDecimal(event.Amount0, token0.Decimals)
	amount1 := domain.ConvertTokenToDecimal(event.Amount1, token1.Decimals)
	amount0Abs := amount0.Abs()
	amount1Abs := amount1.Abs()

	// Volume classifies against pre-swap prices; the bundle and the
	// derived prices refresh only after the pool state advances.
	amounts, err := p.oracle.ClassifyVolume(token0, token1, amount0Abs, amount1Abs, bundle)
	if err != nil {
		return nil, fmt.Errorf("classify volume for pool %s: %w", event.Pool, err)
	}

	// Each swap has two legs; attributed volume is half the leg total.
	volumeETH := amounts.ETH.Mul(half)
	volumeUSD := amounts.USD.Mul(half)
	volumeUSDUntracked := amounts.USDUntracked.Mul(half)

	feeRate := decimal.New(pool.FeeTier, -6)
	feesETH := volumeETH.Mul(feeRate)
	feesUSD := volumeUSD.Mul(feeRate)

	factory.TxCount++
	factory.VolumeETH = factory.VolumeETH.Add(volumeETH)
	factory.VolumeUSD = factory.VolumeUSD.Add(volumeUSD)
	factory.VolumeUSDUntracked = factory.VolumeUSDUntracked.Add(volumeUSDUntracked)
	factory.FeesETH = factory.FeesETH.Add(feesETH)
	factory.FeesUSD = factory.FeesUSD.Add(feesUSD)

	pool.VolumeToken0 = pool.VolumeToken0.Add(amount0Abs)
	pool.VolumeToken1 = pool.VolumeToken1.Add(amount1Abs)
	pool.VolumeUSD = pool.VolumeUSD.Add(volumeUSD)
	pool.VolumeUSDUntracked = pool.VolumeUSDUntracked.Add(volumeUSDUntracked)
	pool.FeesUSD = pool.FeesUSD.Add(feesUSD)
	pool.TxCount++

	// Advance the AMM state and respot the pair prices.
	pool.Liquidity = event.Liquidity
	pool.SqrtPrice = event.SqrtPriceX96
	pool.Tick = event.Tick
	pool.Token0Price, pool.Token1Price = pricing.SqrtPriceX96ToTokenPrices(pool.SqrtPrice, token0.Decimals, token1.Decimals)
	batch.Pools[pool.ID] = pool

	token0.Volume = token0.Volume.Add(amount0Abs)
	token0.VolumeUSD = token0.VolumeUSD.Add(volumeUSD)
	token0.VolumeUSDUntracked = token0.VolumeUSDUntracked.Add(volumeUSDUntracked)
	token0.FeesUSD = token0.FeesUSD.Add(feesUSD)
	token0.TxCount++

	token1.Volume = token1.Volume.Add(amount1Abs)
	token1.VolumeUSD = token1.VolumeUSD.Add(volumeUSD)
	token1.VolumeUSDUntracked = token1.VolumeUSDUntracked.Add(volumeUSDUntracked)
	token1.FeesUSD = token1.FeesUSD.Add(feesUSD)
	token1.TxCount++

	batch.Tokens[token0.ID] = token0
	batch.Tokens[token1.ID] = token1

	// Refresh the bundle through the overlay so a swap on the stable
	// pool itself prices against its own new state.
	ethPriceUSD, err := p.oracle.EthPriceUSD(ctx, ov)
	if err != nil {
		return nil, err
	}
	bundle.EthPriceUSD = ethPriceUSD
	batch.Bundle = bundle

	if token0.DerivedETH, err = p.oracle.DeriveEthPrice(ctx, ov, token0, ethPriceUSD); err != nil {
		return nil, fmt.Errorf("derive price for %s: %w", token0.ID, err)
	}
	if token1.DerivedETH, err = p.oracle.DeriveEthPrice(ctx, ov, token1, ethPriceUSD); err != nil {
		return nil, fmt.Errorf("derive price for %s: %w", token1.ID, err)
	}

	if err := p.updateLockedValues(factory, pool, token0, token1, amount0, amount1, bundle); err != nil {
		return nil, err
	}

	swap := &domain.Swap{
		ID:            fmt.Sprintf("%s#%d", event.TransactionID, pool.TxCount),
		TransactionID: event.TransactionID,
		Timestamp:     event.BlockTime,
		Pool:          pool.ID,
		Token0:        token0.ID,
		Token1:        token1.ID,
		Sender:        event.Sender,
		Origin:        event.Origin,
		Recipient:     event.Recipient,
		Amount0:       amount0,
		Amount1:       amount1,
		AmountUSD:     volumeUSD,
		SqrtPriceX96:  event.SqrtPriceX96,
		Tick:          event.Tick,
		LogIndex:      event.LogIndex,
	}
	batch.Swaps[swap.ID] = swap

	if err := p.updateIntervals(ctx, ov, batch, event.BlockTime, factory, pool, token0, token1,
		amount0Abs, amount1Abs, volumeETH, volumeUSD, volumeUSDUntracked, feesUSD, bundle); err != nil {
		return nil, err
	}

	batch.Factory = factory
	return batch, nil
}

// updateIntervals touches every bucket the swap lands in and adds the
// swap's volume and fee contributions.
func (p *Processor) updateIntervals(
	ctx context.Context,
	ov *overlay,
	batch *storage.Batch,
	ts int64,
	factory *domain.Factory,
	pool *domain.Pool,
	token0, token1 *domain.Token,
	amount0Abs, amount1Abs decimal.Decimal,
	volumeETH, volumeUSD, volumeUSDUntracked, feesUSD decimal.Decimal,
	bundle *domain.Bundle,
) error {
	agg := intervals.NewAggregator(p.cfg, ov)

	globalDay, err := agg.TouchGlobalDay(ctx, factory, ts)
	if err != nil {
		return err
	}
	// The global day bucket carries tracked volume only; its untracked
	// field stays at zero. Untracked accumulates on the factory and the
	// token buckets.
	globalDay.VolumeETH = globalDay.VolumeETH.Add(volumeETH)
	globalDay.VolumeUSD = globalDay.VolumeUSD.Add(volumeUSD)
	globalDay.FeesUSD = globalDay.FeesUSD.Add(feesUSD)
	batch.GlobalDays[globalDay.ID] = globalDay

	poolDay, err := agg.TouchPoolDay(ctx, pool, ts)
	if err != nil {
		return err
	}
	poolDay.VolumeToken0 = poolDay.VolumeToken0.Add(amount0Abs)
	poolDay.VolumeToken1 = poolDay.VolumeToken1.Add(amount1Abs)
	poolDay.VolumeUSD = poolDay.VolumeUSD.Add(volumeUSD)
	poolDay.FeesUSD = poolDay.FeesUSD.Add(feesUSD)
	batch.PoolDays[poolDay.ID] = poolDay

	poolHour, err := agg.TouchPoolHour(ctx, pool, ts)
	if err != nil {
		return err
	}
	poolHour.VolumeToken0 = poolHour.VolumeToken0.Add(amount0Abs)
	poolHour.VolumeToken1 = poolHour.VolumeToken1.Add(amount1Abs)
	poolHour.VolumeUSD = poolHour.VolumeUSD.Add(volumeUSD)
	poolHour.FeesUSD = poolHour.FeesUSD.Add(feesUSD)
	batch.PoolHours[poolHour.ID] = poolHour

	for _, tk := range []struct {
		token  *domain.Token
		amount decimal.Decimal
	}{
		{token0, amount0Abs},
		{token1, amount1Abs},
	} {
		tokenDay, err := agg.TouchTokenDay(ctx, tk.token, bundle, ts)
		if err != nil {
			return err
		}
		tokenDay.Volume = tokenDay.Volume.Add(tk.amount)
		tokenDay.VolumeUSD = tokenDay.VolumeUSD.Add(volumeUSD)
		tokenDay.VolumeUSDUntracked = tokenDay.VolumeUSDUntracked.Add(volumeUSDUntracked)
		tokenDay.FeesUSD = tokenDay.FeesUSD.Add(feesUSD)
		batch.TokenDays[tokenDay.ID] = tokenDay

		tokenHour, err := agg.TouchTokenHour(ctx, tk.token, bundle, ts)
		if err != nil {
			return err
		}
		tokenHour.Volume = tokenHour.Volume.Add(tk.amount)
		tokenHour.VolumeUSD = tokenHour.VolumeUSD.Add(volumeUSD)
		tokenHour.VolumeUSDUntracked = tokenHour.VolumeUSDUntracked.Add(volumeUSDUntracked)
		tokenHour.FeesUSD = tokenHour.FeesUSD.Add(feesUSD)
		batch.TokenHours[tokenHour.ID] = tokenHour
	}

	return nil
}

func missing(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrMissingEntity)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}
