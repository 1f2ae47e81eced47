package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// seedFile describes the pre-existing entity graph: the factory, the
// tokens, and the pools the incoming events will reference. Pool
// creation events are out of scope for the event log, so the graph is
// seeded up front.
type seedFile struct {
	Factory string      `json:"factory"`
	Tokens  []seedToken `json:"tokens"`
	Pools   []seedPool  `json:"pools"`
}

type seedToken struct {
	ID             string   `json:"id"`
	Decimals       int32    `json:"decimals"`
	WhitelistPools []string `json:"whitelist_pools"`
}

type seedPool struct {
	ID        string `json:"id"`
	Token0    string `json:"token0"`
	Token1    string `json:"token1"`
	FeeTier   int64  `json:"fee_tier"`
	Liquidity string `json:"liquidity"`
	SqrtPrice string `json:"sqrt_price"`
	Tick      int32  `json:"tick"`
	// Token balances at the seed point, in token units.
	BalanceToken0 string `json:"balance_token0"`
	BalanceToken1 string `json:"balance_token1"`
}

// SeedEntities loads the entity fixture file and applies it to the
// store as one batch. The bundle starts at a zero ETH price; the first
// swap on the stable pool sets it.
func SeedEntities(ctx context.Context, store storage.EntityStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if file.Factory == "" {
		return fmt.Errorf("seed file %s: %w: factory is required", path, storage.ErrInvalidInput)
	}

	batch := storage.NewBatch()
	batch.Bundle = &domain.Bundle{ID: domain.BundleID}
	batch.Factory = &domain.Factory{ID: strings.ToLower(file.Factory)}

	for i, t := range file.Tokens {
		if t.ID == "" {
			return fmt.Errorf("seed file %s: token %d: %w: id is required", path, i, storage.ErrInvalidInput)
		}
		pools := make([]string, len(t.WhitelistPools))
		for j, p := range t.WhitelistPools {
			pools[j] = strings.ToLower(p)
		}
		id := strings.ToLower(t.ID)
		batch.Tokens[id] = &domain.Token{
			ID:             id,
			Decimals:       t.Decimals,
			WhitelistPools: pools,
		}
	}

	for i, p := range file.Pools {
		if p.ID == "" || p.Token0 == "" || p.Token1 == "" {
			return fmt.Errorf("seed file %s: pool %d: %w: id and tokens are required", path, i, storage.ErrInvalidInput)
		}
		liquidity, err := parseBigInt(p.Liquidity)
		if err != nil {
			return fmt.Errorf("seed file %s: pool %s liquidity: %w", path, p.ID, err)
		}
		sqrtPrice, err := parseBigInt(p.SqrtPrice)
		if err != nil {
			return fmt.Errorf("seed file %s: pool %s sqrt_price: %w", path, p.ID, err)
		}
		balance0, err := parseDecimal(p.BalanceToken0)
		if err != nil {
			return fmt.Errorf("seed file %s: pool %s balance_token0: %w", path, p.ID, err)
		}
		balance1, err := parseDecimal(p.BalanceToken1)
		if err != nil {
			return fmt.Errorf("seed file %s: pool %s balance_token1: %w", path, p.ID, err)
		}

		id := strings.ToLower(p.ID)
		batch.Pools[id] = &domain.Pool{
			ID:                     id,
			Token0:                 strings.ToLower(p.Token0),
			Token1:                 strings.ToLower(p.Token1),
			FeeTier:                p.FeeTier,
			Liquidity:              liquidity,
			SqrtPrice:              sqrtPrice,
			Tick:                   p.Tick,
			TotalValueLockedToken0: balance0,
			TotalValueLockedToken1: balance1,
		}
	}

	return store.ApplyBatch(ctx, batch)
}

// SeedIDs returns the pool and token addresses a seed file declares,
// lowercased. Replay verification uses them as its comparison scope.
func SeedIDs(path string) (pools, tokens []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for _, p := range file.Pools {
		pools = append(pools, strings.ToLower(p.ID))
	}
	for _, t := range file.Tokens {
		tokens = append(tokens, strings.ToLower(t.ID))
	}
	return pools, tokens, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
