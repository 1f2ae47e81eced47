package replay

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// Scope names the pool and token rows to compare. The entity store has
// no enumeration API, so the caller supplies the IDs it cares about,
// usually straight from the deployment seed file.
type Scope struct {
	Pools  []string
	Tokens []string
}

// Divergence is one field that differs between the live store and the
// rebuilt one. Values are formatted for the report, not for parsing.
type Divergence struct {
	Entity  string
	ID      string
	Field   string
	Live    string
	Rebuilt string
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s %s: %s live=%s rebuilt=%s", d.Entity, d.ID, d.Field, d.Live, d.Rebuilt)
}

// CompareStores compares the factory, the bundle, and every scoped
// pool and token row between the two stores. A row missing on exactly
// one side is reported as a "presence" divergence.
func CompareStores(ctx context.Context, live, rebuilt storage.EntityStore, factoryID string, scope Scope) ([]Divergence, error) {
	var divs []Divergence

	liveFactory, err := getOrNil(live.GetFactory(ctx, factoryID))
	if err != nil {
		return nil, fmt.Errorf("live factory: %w", err)
	}
	rebuiltFactory, err := getOrNil(rebuilt.GetFactory(ctx, factoryID))
	if err != nil {
		return nil, fmt.Errorf("rebuilt factory: %w", err)
	}
	divs = append(divs, compareFactories(factoryID, liveFactory, rebuiltFactory)...)

	liveBundle, err := getOrNil(live.GetBundle(ctx))
	if err != nil {
		return nil, fmt.Errorf("live bundle: %w", err)
	}
	rebuiltBundle, err := getOrNil(rebuilt.GetBundle(ctx))
	if err != nil {
		return nil, fmt.Errorf("rebuilt bundle: %w", err)
	}
	divs = append(divs, compareBundles(liveBundle, rebuiltBundle)...)

	for _, id := range scope.Pools {
		lp, err := getOrNil(live.GetPool(ctx, id))
		if err != nil {
			return nil, fmt.Errorf("live pool %s: %w", id, err)
		}
		rp, err := getOrNil(rebuilt.GetPool(ctx, id))
		if err != nil {
			return nil, fmt.Errorf("rebuilt pool %s: %w", id, err)
		}
		divs = append(divs, comparePools(id, lp, rp)...)
	}

	for _, id := range scope.Tokens {
		lt, err := getOrNil(live.GetToken(ctx, id))
		if err != nil {
			return nil, fmt.Errorf("live token %s: %w", id, err)
		}
		rt, err := getOrNil(rebuilt.GetToken(ctx, id))
		if err != nil {
			return nil, fmt.Errorf("rebuilt token %s: %w", id, err)
		}
		divs = append(divs, compareTokens(id, lt, rt)...)
	}

	return divs, nil
}

// getOrNil folds ErrNotFound into a nil entity so presence mismatches
// become divergences instead of hard errors.
func getOrNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

type diffCollector struct {
	entity string
	id     string
	divs   []Divergence
}

func (c *diffCollector) decimal(field string, live, rebuilt decimal.Decimal) {
	if !live.Equal(rebuilt) {
		c.add(field, live.String(), rebuilt.String())
	}
}

func (c *diffCollector) int64(field string, live, rebuilt int64) {
	if live != rebuilt {
		c.add(field, fmt.Sprintf("%d", live), fmt.Sprintf("%d", rebuilt))
	}
}

func (c *diffCollector) bigInt(field string, live, rebuilt *big.Int) {
	switch {
	case live == nil && rebuilt == nil:
	case live == nil || rebuilt == nil || live.Cmp(rebuilt) != 0:
		c.add(field, bigString(live), bigString(rebuilt))
	}
}

func (c *diffCollector) add(field, live, rebuilt string) {
	c.divs = append(c.divs, Divergence{Entity: c.entity, ID: c.id, Field: field, Live: live, Rebuilt: rebuilt})
}

func bigString(v *big.Int) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}

func presence(entity, id string, liveMissing, rebuiltMissing bool) []Divergence {
	side := func(missing bool) string {
		if missing {
			return "missing"
		}
		return "present"
	}
	return []Divergence{{Entity: entity, ID: id, Field: "presence", Live: side(liveMissing), Rebuilt: side(rebuiltMissing)}}
}

func compareFactories(id string, live, rebuilt *domain.Factory) []Divergence {
	if live == nil || rebuilt == nil {
		if live == rebuilt {
			return nil
		}
		return presence("factory", id, live == nil, rebuilt == nil)
	}
	c := &diffCollector{entity: "factory", id: id}
	c.int64("txCount", live.TxCount, rebuilt.TxCount)
	c.decimal("volumeETH", live.VolumeETH, rebuilt.VolumeETH)
	c.decimal("volumeUSD", live.VolumeUSD, rebuilt.VolumeUSD)
	c.decimal("volumeUSDUntracked", live.VolumeUSDUntracked, rebuilt.VolumeUSDUntracked)
	c.decimal("feesETH", live.FeesETH, rebuilt.FeesETH)
	c.decimal("feesUSD", live.FeesUSD, rebuilt.FeesUSD)
	c.decimal("totalValueLockedETH", live.TotalValueLockedETH, rebuilt.TotalValueLockedETH)
	c.decimal("totalValueLockedUSD", live.TotalValueLockedUSD, rebuilt.TotalValueLockedUSD)
	c.decimal("totalValueLockedETHUntracked", live.TotalValueLockedETHUntracked, rebuilt.TotalValueLockedETHUntracked)
	c.decimal("totalValueLockedUSDUntracked", live.TotalValueLockedUSDUntracked, rebuilt.TotalValueLockedUSDUntracked)
	return c.divs
}

func compareBundles(live, rebuilt *domain.Bundle) []Divergence {
	if live == nil || rebuilt == nil {
		if live == rebuilt {
			return nil
		}
		return presence("bundle", domain.BundleID, live == nil, rebuilt == nil)
	}
	c := &diffCollector{entity: "bundle", id: domain.BundleID}
	c.decimal("ethPriceUSD", live.EthPriceUSD, rebuilt.EthPriceUSD)
	return c.divs
}

func comparePools(id string, live, rebuilt *domain.Pool) []Divergence {
	if live == nil || rebuilt == nil {
		if live == rebuilt {
			return nil
		}
		return presence("pool", id, live == nil, rebuilt == nil)
	}
	c := &diffCollector{entity: "pool", id: id}
	c.int64("txCount", live.TxCount, rebuilt.TxCount)
	c.bigInt("liquidity", live.Liquidity, rebuilt.Liquidity)
	c.bigInt("sqrtPrice", live.SqrtPrice, rebuilt.SqrtPrice)
	c.int64("tick", int64(live.Tick), int64(rebuilt.Tick))
	c.decimal("token0Price", live.Token0Price, rebuilt.Token0Price)
	c.decimal("token1Price", live.Token1Price, rebuilt.Token1Price)
	c.decimal("volumeToken0", live.VolumeToken0, rebuilt.VolumeToken0)
	c.decimal("volumeToken1", live.VolumeToken1, rebuilt.VolumeToken1)
	c.decimal("volumeUSD", live.VolumeUSD, rebuilt.VolumeUSD)
	c.decimal("volumeUSDUntracked", live.VolumeUSDUntracked, rebuilt.VolumeUSDUntracked)
	c.decimal("feesUSD", live.FeesUSD, rebuilt.FeesUSD)
	c.decimal("totalValueLockedToken0", live.TotalValueLockedToken0, rebuilt.TotalValueLockedToken0)
	c.decimal("totalValueLockedToken1", live.TotalValueLockedToken1, rebuilt.TotalValueLockedToken1)
	c.decimal("totalValueLockedETH", live.TotalValueLockedETH, rebuilt.TotalValueLockedETH)
	c.decimal("totalValueLockedUSD", live.TotalValueLockedUSD, rebuilt.TotalValueLockedUSD)
	c.decimal("totalValueLockedETHUntracked", live.TotalValueLockedETHUntracked, rebuilt.TotalValueLockedETHUntracked)
	c.decimal("totalValueLockedUSDUntracked", live.TotalValueLockedUSDUntracked, rebuilt.TotalValueLockedUSDUntracked)
	return c.divs
}

func compareTokens(id string, live, rebuilt *domain.Token) []Divergence {
	if live == nil || rebuilt == nil {
		if live == rebuilt {
			return nil
		}
		return presence("token", id, live == nil, rebuilt == nil)
	}
	c := &diffCollector{entity: "token", id: id}
	c.int64("txCount", live.TxCount, rebuilt.TxCount)
	c.decimal("derivedETH", live.DerivedETH, rebuilt.DerivedETH)
	c.decimal("volume", live.Volume, rebuilt.Volume)
	c.decimal("volumeUSD", live.VolumeUSD, rebuilt.VolumeUSD)
	c.decimal("volumeUSDUntracked", live.VolumeUSDUntracked, rebuilt.VolumeUSDUntracked)
	c.decimal("feesUSD", live.FeesUSD, rebuilt.FeesUSD)
	c.decimal("totalValueLocked", live.TotalValueLocked, rebuilt.TotalValueLocked)
	c.decimal("totalValueLockedUSD", live.TotalValueLockedUSD, rebuilt.TotalValueLockedUSD)
	return c.divs
}
