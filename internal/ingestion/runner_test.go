package ingestion

import (
	"context"
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/processor"
	"dex-market-indexer/internal/storage"
	"dex-market-indexer/internal/storage/memory"
)

const (
	runnerWETH = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	runnerUSDC = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	runnerPool = "0xrunnerpool"
)

type stubEventSource struct {
	events []*domain.SwapEvent
	err    error
}

func (s *stubEventSource) Fetch(_ context.Context, _, _ uint64) ([]*domain.SwapEvent, error) {
	return s.events, s.err
}

func runnerConfig() *config.Config {
	cfg := config.Mainnet()
	cfg.StablePool = runnerPool
	cfg.StableIsToken0 = false
	return cfg
}

func seedEntityStore(t *testing.T, cfg *config.Config) *memory.EntityStore {
	t.Helper()
	store := memory.NewEntityStore()

	q192 := new(big.Int).Lsh(big.NewInt(1), 192)
	sqrtPrice := new(big.Int).Sqrt(new(big.Int).Div(q192, big.NewInt(500_000_000)))

	b := storage.NewBatch()
	b.Bundle = &domain.Bundle{ID: domain.BundleID, EthPriceUSD: decimal.NewFromInt(2000)}
	b.Factory = &domain.Factory{ID: cfg.FactoryAddress}
	b.Tokens[runnerWETH] = &domain.Token{ID: runnerWETH, Decimals: 18, DerivedETH: decimal.NewFromInt(1)}
	b.Tokens[runnerUSDC] = &domain.Token{ID: runnerUSDC, Decimals: 6, DerivedETH: decimal.NewFromFloat(0.0005)}
	b.Pools[runnerPool] = &domain.Pool{
		ID:                     runnerPool,
		Token0:                 runnerWETH,
		Token1:                 runnerUSDC,
		FeeTier:                500,
		Liquidity:              big.NewInt(1_000_000),
		SqrtPrice:              sqrtPrice,
		TotalValueLockedToken0: decimal.NewFromInt(10),
		TotalValueLockedToken1: decimal.NewFromInt(20_000),
	}
	if err := store.ApplyBatch(context.Background(), b); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func runnerEvent(pool, tx string, block uint64, logIndex int) *domain.SwapEvent {
	amount0, _ := new(big.Int).SetString("1000000000000000000", 10)
	q192 := new(big.Int).Lsh(big.NewInt(1), 192)
	return &domain.SwapEvent{
		Pool:          pool,
		TransactionID: tx,
		BlockNumber:   block,
		BlockTime:     1620172900 + int64(block),
		LogIndex:      logIndex,
		Amount0:       amount0,
		Amount1:       big.NewInt(-2_000_000_000),
		SqrtPriceX96:  new(big.Int).Sqrt(new(big.Int).Div(q192, big.NewInt(500_000_000))),
		Liquidity:     big.NewInt(1_000_000),
		Tick:          -200697,
	}
}

func TestRunner_ProcessesInCanonicalOrder(t *testing.T) {
	cfg := runnerConfig()
	entityStore := seedEntityStore(t, cfg)
	eventStore := memory.NewSwapEventStore()
	ctx := context.Background()

	// Delivered out of order; the runner must sort before processing.
	source := &stubEventSource{events: []*domain.SwapEvent{
		runnerEvent(runnerPool, "0xtx3", 102, 0),
		runnerEvent(runnerPool, "0xtx1", 100, 0),
		runnerEvent(runnerPool, "0xtx2", 101, 0),
	}}

	runner := NewRunner(RunnerOptions{
		Source:     source,
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
	})

	res, err := runner.Run(ctx, 0, math.MaxUint64)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", res.Processed)
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", res.Skipped)
	}

	stored, err := eventStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 stored events, got %d", len(stored))
	}
	if err := ValidateOrdering(stored); err != nil {
		t.Errorf("stored events not in canonical order: %v", err)
	}

	factory, err := entityStore.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 3 {
		t.Errorf("expected factory TxCount 3, got %d", factory.TxCount)
	}
}

func TestRunner_SkipsDeniedPools(t *testing.T) {
	cfg := runnerConfig()
	cfg.PoolOverrides["0xdenied"] = config.PolicyDeny
	entityStore := seedEntityStore(t, cfg)
	eventStore := memory.NewSwapEventStore()

	source := &stubEventSource{events: []*domain.SwapEvent{
		runnerEvent(runnerPool, "0xtx1", 100, 0),
		runnerEvent("0xdenied", "0xtx2", 101, 0),
	}}

	runner := NewRunner(RunnerOptions{
		Source:     source,
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
	})

	res, err := runner.Run(context.Background(), 0, math.MaxUint64)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Processed != 1 {
		t.Errorf("expected 1 processed, got %d", res.Processed)
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped)
	}
}

func TestRunner_SkipsDuplicatesOnRerun(t *testing.T) {
	cfg := runnerConfig()
	entityStore := seedEntityStore(t, cfg)
	eventStore := memory.NewSwapEventStore()

	source := &stubEventSource{events: []*domain.SwapEvent{
		runnerEvent(runnerPool, "0xtx1", 100, 0),
	}}
	runner := NewRunner(RunnerOptions{
		Source:     source,
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
	})
	ctx := context.Background()

	if _, err := runner.Run(ctx, 0, math.MaxUint64); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// Same range again: the event is already durable and processed, so
	// nothing is double-counted.
	res, err := runner.Run(ctx, 0, math.MaxUint64)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Processed != 0 || res.Skipped != 1 {
		t.Errorf("expected 0 processed / 1 skipped, got %d / %d", res.Processed, res.Skipped)
	}

	factory, err := entityStore.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 1 {
		t.Errorf("expected factory TxCount 1 after rerun, got %d", factory.TxCount)
	}
}

func TestRunner_AbortsOnMissingEntity(t *testing.T) {
	cfg := runnerConfig()
	entityStore := seedEntityStore(t, cfg)
	eventStore := memory.NewSwapEventStore()

	source := &stubEventSource{events: []*domain.SwapEvent{
		runnerEvent("0xunknown", "0xtx1", 100, 0),
		runnerEvent(runnerPool, "0xtx2", 101, 0),
	}}
	runner := NewRunner(RunnerOptions{
		Source:     source,
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
	})

	if _, err := runner.Run(context.Background(), 0, math.MaxUint64); err == nil {
		t.Fatal("expected run to abort on a swap for an unknown pool")
	}

	// The later event must not have been processed past the gap.
	factory, err := entityStore.GetFactory(context.Background(), cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 0 {
		t.Errorf("expected no swaps processed after abort, got TxCount %d", factory.TxCount)
	}
}
