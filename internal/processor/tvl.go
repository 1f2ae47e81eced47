package processor

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/domain"
)

// updateLockedValues folds the swap's signed token deltas into the
// locked-value figures. The pool's ETH and USD TVL recompute from
// scratch against the freshly derived prices, with the same whitelist
// rules as volume classification; the factory carries the old-pool /
// new-pool difference so it never drifts from the sum of its pools.
func (p *Processor) updateLockedValues(
	factory *domain.Factory,
	pool *domain.Pool,
	token0, token1 *domain.Token,
	amount0, amount1 decimal.Decimal,
	bundle *domain.Bundle,
) error {
	// Back the pool's previous contribution out of the factory totals.
	factory.TotalValueLockedETH = factory.TotalValueLockedETH.Sub(pool.TotalValueLockedETH)
	factory.TotalValueLockedETHUntracked = factory.TotalValueLockedETHUntracked.Sub(pool.TotalValueLockedETHUntracked)

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)

	token0.TotalValueLocked = token0.TotalValueLocked.Add(amount0)
	token0.TotalValueLockedUSD = token0.TotalValueLocked.Mul(token0.DerivedETH).Mul(bundle.EthPriceUSD)
	token1.TotalValueLocked = token1.TotalValueLocked.Add(amount1)
	token1.TotalValueLockedUSD = token1.TotalValueLocked.Mul(token1.DerivedETH).Mul(bundle.EthPriceUSD)

	locked, err := p.oracle.ClassifyVolume(token0, token1, pool.TotalValueLockedToken0, pool.TotalValueLockedToken1, bundle)
	if err != nil {
		return fmt.Errorf("classify locked value for pool %s: %w", pool.ID, err)
	}
	pool.TotalValueLockedETH = locked.ETH
	pool.TotalValueLockedUSD = locked.USD
	pool.TotalValueLockedETHUntracked = locked.ETHUntracked
	pool.TotalValueLockedUSDUntracked = locked.USDUntracked

	factory.TotalValueLockedETH = factory.TotalValueLockedETH.Add(pool.TotalValueLockedETH)
	factory.TotalValueLockedUSD = factory.TotalValueLockedETH.Mul(bundle.EthPriceUSD)
	factory.TotalValueLockedETHUntracked = factory.TotalValueLockedETHUntracked.Add(pool.TotalValueLockedETHUntracked)
	factory.TotalValueLockedUSDUntracked = factory.TotalValueLockedETHUntracked.Mul(bundle.EthPriceUSD)
	return nil
}
