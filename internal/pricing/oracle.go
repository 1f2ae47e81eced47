package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// ErrMissingInput is returned when volume classification is called with
// incomplete token or bundle state. The caller must treat this as a
// processing failure, not as untracked volume.
var ErrMissingInput = errors.New("pricing: missing token or bundle input")

// PoolLookup resolves pools and tokens by address. The processor passes
// an overlay here so the oracle sees in-flight writes before they are
// committed to the store.
type PoolLookup interface {
	Pool(ctx context.Context, id string) (*domain.Pool, error)
	Token(ctx context.Context, id string) (*domain.Token, error)
}

// Amounts is the result of classifying one swap's volume, all sides
// expressed per getAdjustedAmounts semantics: tracked values cover only
// whitelist-priced volume, untracked values price everything.
type Amounts struct {
	ETH          decimal.Decimal
	USD          decimal.Decimal
	ETHUntracked decimal.Decimal
	USDUntracked decimal.Decimal
}

// Oracle prices tokens against the deployment configuration.
type Oracle struct {
	cfg *config.Config
}

// NewOracle creates an oracle for one deployment.
func NewOracle(cfg *config.Config) *Oracle {
	return &Oracle{cfg: cfg}
}

// EthPriceUSD reads the USD price of the reference token from the
// configured stable pool. Returns zero (not an error) when the stable
// pool does not exist yet or has not traded.
func (o *Oracle) EthPriceUSD(ctx context.Context, lookup PoolLookup) (decimal.Decimal, error) {
	pool, err := lookup.Pool(ctx, o.cfg.StablePool)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load stable pool: %w", err)
	}

	if o.cfg.StableIsToken0 {
		return pool.Token0Price, nil
	}
	return pool.Token1Price, nil
}

// DeriveEthPrice computes a token's unit price in reference-token terms.
//
// The reference token itself prices at exactly 1, stablecoins at the
// inverse of the current ETH price, and every other token through the
// single deepest whitelist pool: walking WhitelistPools in insertion
// order, a pool is a candidate when it has live liquidity, its
// counter-asset side locks strictly more reference-token value than the
// best candidate so far, and that value either clears the configured
// minimum or the counter-token is itself whitelisted. The first pool to
// reach the maximum therefore wins ties. A token with no qualifying
// pool prices at zero; that is a valid state, not an error.
func (o *Oracle) DeriveEthPrice(ctx context.Context, lookup PoolLookup, token *domain.Token, ethPriceUSD decimal.Decimal) (decimal.Decimal, error) {
	if token.ID == o.cfg.ReferenceToken {
		return decimal.NewFromInt(1), nil
	}
	if o.cfg.IsStableCoin(token.ID) {
		return domain.SafeDiv(decimal.NewFromInt(1), ethPriceUSD), nil
	}

	largestEthLocked := decimal.Zero
	price := decimal.Zero

	for _, poolID := range token.WhitelistPools {
		pool, err := lookup.Pool(ctx, poolID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("load whitelist pool %s: %w", poolID, err)
		}
		if pool.Liquidity == nil || pool.Liquidity.Sign() <= 0 {
			continue
		}

		switch token.ID {
		case pool.Token0:
			counter, err := lookup.Token(ctx, pool.Token1)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return decimal.Zero, fmt.Errorf("load counter token %s: %w", pool.Token1, err)
			}
			ethLocked := pool.TotalValueLockedToken1.Mul(counter.DerivedETH)
			if ethLocked.GreaterThan(largestEthLocked) &&
				(ethLocked.GreaterThan(o.cfg.MinimumEthLocked) || o.cfg.IsWhitelisted(counter.ID)) {
				largestEthLocked = ethLocked
				// token1 per token0, times ETH per token1
				price = pool.Token1Price.Mul(counter.DerivedETH)
			}
		case pool.Token1:
			counter, err := lookup.Token(ctx, pool.Token0)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return decimal.Zero, fmt.Errorf("load counter token %s: %w", pool.Token0, err)
			}
			ethLocked := pool.TotalValueLockedToken0.Mul(counter.DerivedETH)
			if ethLocked.GreaterThan(largestEthLocked) &&
				(ethLocked.GreaterThan(o.cfg.MinimumEthLocked) || o.cfg.IsWhitelisted(counter.ID)) {
				largestEthLocked = ethLocked
				price = pool.Token0Price.Mul(counter.DerivedETH)
			}
		}
	}

	return price, nil
}

// ClassifyVolume prices one swap's absolute token amounts against the
// whitelist. The tracked side counts the full value when both tokens
// are whitelisted, twice the whitelisted side when only one is, and
// zero when neither is; the untracked side always sums both legs at
// their derived prices. Callers halve the totals when attributing
// volume to the swap as a whole.
func (o *Oracle) ClassifyVolume(token0, token1 *domain.Token, amount0Abs, amount1Abs decimal.Decimal, bundle *domain.Bundle) (Amounts, error) {
	if token0 == nil || token1 == nil || bundle == nil {
		return Amounts{}, ErrMissingInput
	}

	eth0 := amount0Abs.Mul(token0.DerivedETH)
	eth1 := amount1Abs.Mul(token1.DerivedETH)
	ethUntracked := eth0.Add(eth1)

	in0 := o.cfg.IsWhitelisted(token0.ID)
	in1 := o.cfg.IsWhitelisted(token1.ID)

	var eth decimal.Decimal
	switch {
	case in0 && in1:
		eth = ethUntracked
	case in0:
		eth = eth0.Mul(decimal.NewFromInt(2))
	case in1:
		eth = eth1.Mul(decimal.NewFromInt(2))
	default:
		eth = decimal.Zero
	}

	return Amounts{
		ETH:          eth,
		USD:          eth.Mul(bundle.EthPriceUSD),
		ETHUntracked: ethUntracked,
		USDUntracked: ethUntracked.Mul(bundle.EthPriceUSD),
	}, nil
}
