package processor

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/intervals"
	"dex-market-indexer/internal/storage"
	"dex-market-indexer/internal/storage/memory"
)

const (
	wethAddr = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdcAddr = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	poolAddr = "0xpoolwethusdc"
)

// testConfig points the stable pool at the fixture pool, which holds
// WETH on the token0 side.
func testConfig() *config.Config {
	cfg := config.Mainnet()
	cfg.StablePool = poolAddr
	cfg.StableIsToken0 = false
	return cfg
}

// seedStore populates a fresh store with a WETH/USDC pool holding
// 10 WETH against 20,000 USDC, priced at 2000 USD per ETH.
func seedStore(t *testing.T, cfg *config.Config) *memory.EntityStore {
	t.Helper()
	store := memory.NewEntityStore()

	b := storage.NewBatch()
	b.Bundle = &domain.Bundle{ID: domain.BundleID, EthPriceUSD: decimal.NewFromInt(2000)}
	b.Factory = &domain.Factory{ID: cfg.FactoryAddress}
	b.Tokens[wethAddr] = &domain.Token{
		ID:         wethAddr,
		Decimals:   18,
		DerivedETH: decimal.NewFromInt(1),
	}
	b.Tokens[usdcAddr] = &domain.Token{
		ID:         usdcAddr,
		Decimals:   6,
		DerivedETH: decimal.NewFromFloat(0.0005),
	}
	b.Pools[poolAddr] = &domain.Pool{
		ID:                     poolAddr,
		Token0:                 wethAddr,
		Token1:                 usdcAddr,
		FeeTier:                500,
		Liquidity:              big.NewInt(1_000_000),
		SqrtPrice:              sqrtPriceFor2000(),
		TotalValueLockedToken0: decimal.NewFromInt(10),
		TotalValueLockedToken1: decimal.NewFromInt(20_000),
	}
	if err := store.ApplyBatch(context.Background(), b); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

// sqrtPriceFor2000 returns the X96 square-root price of a WETH/USDC
// pool at 2000 USDC per WETH (raw ratio 1/5e8).
func sqrtPriceFor2000() *big.Int {
	q192 := new(big.Int).Lsh(big.NewInt(1), 192)
	return new(big.Int).Sqrt(new(big.Int).Div(q192, big.NewInt(500_000_000)))
}

// sellOneWeth is a swap of 1 WETH into 2000 USDC at block time ts.
func sellOneWeth(tx string, logIndex int, ts int64) *domain.SwapEvent {
	amount0, _ := new(big.Int).SetString("1000000000000000000", 10) // +1 WETH
	return &domain.SwapEvent{
		Pool:          poolAddr,
		TransactionID: tx,
		BlockNumber:   100,
		BlockTime:     ts,
		LogIndex:      logIndex,
		Sender:        "0xsender",
		Origin:        "0xorigin",
		Recipient:     "0xrecipient",
		Amount0:       amount0,
		Amount1:       big.NewInt(-2_000_000_000), // -2000 USDC
		SqrtPriceX96:  sqrtPriceFor2000(),
		Liquidity:     big.NewInt(1_000_000),
		Tick:          -200697,
	}
}

func approx(t *testing.T, name string, got, want decimal.Decimal, tol float64) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(decimal.NewFromFloat(tol)) {
		t.Errorf("%s: expected ~%s, got %s", name, want, got)
	}
}

func TestProcessSwap_WhitelistPair(t *testing.T) {
	cfg := testConfig()
	store := seedStore(t, cfg)
	proc := New(store, cfg)
	ctx := context.Background()

	const ts = int64(1620172900)
	if err := proc.ProcessSwap(ctx, sellOneWeth("0xtx1", 3, ts)); err != nil {
		t.Fatalf("ProcessSwap failed: %v", err)
	}

	// Both legs are whitelisted: 1 WETH + 2000 USDC price to 2 ETH
	// total, halved to 1 ETH of attributed volume.
	factory, err := store.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 1 {
		t.Errorf("expected factory TxCount 1, got %d", factory.TxCount)
	}
	if !factory.VolumeETH.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected VolumeETH 1, got %s", factory.VolumeETH)
	}
	if !factory.VolumeUSD.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected VolumeUSD 2000, got %s", factory.VolumeUSD)
	}
	if !factory.FeesETH.Equal(decimal.NewFromFloat(0.0005)) {
		t.Errorf("expected FeesETH 0.0005 at the 500ppm tier, got %s", factory.FeesETH)
	}
	if !factory.FeesUSD.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected FeesUSD 1, got %s", factory.FeesUSD)
	}

	pool, err := store.GetPool(ctx, poolAddr)
	if err != nil {
		t.Fatalf("GetPool failed: %v", err)
	}
	if !pool.VolumeToken0.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected VolumeToken0 1, got %s", pool.VolumeToken0)
	}
	if !pool.VolumeToken1.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected VolumeToken1 2000, got %s", pool.VolumeToken1)
	}
	if pool.TxCount != 1 {
		t.Errorf("expected pool TxCount 1, got %d", pool.TxCount)
	}
	approx(t, "pool.Token1Price", pool.Token1Price, decimal.NewFromInt(2000), 0.01)
	if !pool.TotalValueLockedToken0.Equal(decimal.NewFromInt(11)) {
		t.Errorf("expected pool TVL token0 11, got %s", pool.TotalValueLockedToken0)
	}
	if !pool.TotalValueLockedToken1.Equal(decimal.NewFromInt(18_000)) {
		t.Errorf("expected pool TVL token1 18000, got %s", pool.TotalValueLockedToken1)
	}
	// 11 WETH + 18000 USDC at ~2000 USD/ETH locks ~20 ETH.
	approx(t, "pool.TotalValueLockedETH", pool.TotalValueLockedETH, decimal.NewFromInt(20), 0.01)
	approx(t, "factory.TotalValueLockedETH", factory.TotalValueLockedETH, decimal.NewFromInt(20), 0.01)
	approx(t, "factory.TotalValueLockedUSD", factory.TotalValueLockedUSD, decimal.NewFromInt(40_000), 20)

	// The swap ran on the stable pool, so the bundle refreshed against
	// the pool's own post-swap price.
	bundle, err := store.GetBundle(ctx)
	if err != nil {
		t.Fatalf("GetBundle failed: %v", err)
	}
	approx(t, "bundle.EthPriceUSD", bundle.EthPriceUSD, decimal.NewFromInt(2000), 0.01)

	weth, err := store.GetToken(ctx, wethAddr)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if !weth.DerivedETH.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected reference token DerivedETH 1, got %s", weth.DerivedETH)
	}
	if !weth.Volume.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected WETH Volume 1, got %s", weth.Volume)
	}

	usdc, err := store.GetToken(ctx, usdcAddr)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	approx(t, "usdc.DerivedETH", usdc.DerivedETH, decimal.NewFromFloat(0.0005), 0.0000001)
	if !usdc.Volume.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected USDC Volume 2000, got %s", usdc.Volume)
	}

	swap, err := store.GetSwap(ctx, "0xtx1#1")
	if err != nil {
		t.Fatalf("GetSwap failed: %v", err)
	}
	if !swap.Amount0.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected swap Amount0 1, got %s", swap.Amount0)
	}
	if !swap.Amount1.Equal(decimal.NewFromInt(-2000)) {
		t.Errorf("expected swap Amount1 -2000, got %s", swap.Amount1)
	}
	if !swap.AmountUSD.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected swap AmountUSD 2000, got %s", swap.AmountUSD)
	}
	if swap.Origin != "0xorigin" {
		t.Errorf("expected origin preserved, got %s", swap.Origin)
	}

	globalDay, err := store.GetGlobalDay(ctx, intervals.GlobalDayID(ts))
	if err != nil {
		t.Fatalf("GetGlobalDay failed: %v", err)
	}
	if !globalDay.VolumeETH.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected global day VolumeETH 1, got %s", globalDay.VolumeETH)
	}
	if globalDay.TxCount != 1 {
		t.Errorf("expected global day TxCount 1, got %d", globalDay.TxCount)
	}
	// Untracked volume never lands on the global day bucket; it lives
	// on the factory and the token buckets.
	if !globalDay.VolumeUSDUntracked.IsZero() {
		t.Errorf("expected global day VolumeUSDUntracked to stay zero, got %s", globalDay.VolumeUSDUntracked)
	}

	poolDay, err := store.GetPoolDay(ctx, intervals.PoolDayID(poolAddr, ts))
	if err != nil {
		t.Fatalf("GetPoolDay failed: %v", err)
	}
	if !poolDay.VolumeUSD.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected pool day VolumeUSD 2000, got %s", poolDay.VolumeUSD)
	}
	approx(t, "poolDay.Close", poolDay.Close, decimal.NewFromFloat(0.0005), 0.0000001)

	tokenDay, err := store.GetTokenDay(ctx, intervals.TokenDayID(wethAddr, ts))
	if err != nil {
		t.Fatalf("GetTokenDay failed: %v", err)
	}
	if !tokenDay.Volume.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected WETH token day Volume 1, got %s", tokenDay.Volume)
	}
	// Token bucket pricing is off by default.
	if !tokenDay.PriceUSD.IsZero() || !tokenDay.Close.IsZero() {
		t.Errorf("expected zero token day price fields, got priceUSD=%s close=%s", tokenDay.PriceUSD, tokenDay.Close)
	}

	if _, err := store.GetTokenHour(ctx, intervals.TokenHourID(usdcAddr, ts)); err != nil {
		t.Errorf("expected USDC token hour bucket, got %v", err)
	}
}

func TestProcessSwap_DeniedPoolIsNoOp(t *testing.T) {
	cfg := testConfig()
	cfg.PoolOverrides[poolAddr] = config.PolicyDeny
	store := seedStore(t, cfg)
	proc := New(store, cfg)
	ctx := context.Background()

	err := proc.ProcessSwap(ctx, sellOneWeth("0xtx1", 0, 1620172900))
	if !errors.Is(err, ErrPoolDenied) {
		t.Fatalf("expected ErrPoolDenied, got %v", err)
	}

	factory, err := store.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 0 {
		t.Errorf("denied swap advanced factory TxCount to %d", factory.TxCount)
	}
	if _, err := store.GetSwap(ctx, "0xtx1#1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("denied swap left a swap record: %v", err)
	}
}

func TestProcessSwap_MissingEntityAborts(t *testing.T) {
	cfg := testConfig()
	store := seedStore(t, cfg)
	proc := New(store, cfg)
	ctx := context.Background()

	event := sellOneWeth("0xtx1", 0, 1620172900)
	event.Pool = "0xunknownpool"

	err := proc.ProcessSwap(ctx, event)
	if !errors.Is(err, ErrMissingEntity) {
		t.Fatalf("expected ErrMissingEntity, got %v", err)
	}

	factory, err := store.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.TxCount != 0 {
		t.Errorf("failed swap advanced factory TxCount to %d", factory.TxCount)
	}
}

func TestProcessSwap_DistinctIDsWithinTransaction(t *testing.T) {
	cfg := testConfig()
	store := seedStore(t, cfg)
	proc := New(store, cfg)
	ctx := context.Background()

	if err := proc.ProcessSwap(ctx, sellOneWeth("0xtx1", 1, 1620172900)); err != nil {
		t.Fatalf("first swap failed: %v", err)
	}
	if err := proc.ProcessSwap(ctx, sellOneWeth("0xtx1", 2, 1620172905)); err != nil {
		t.Fatalf("second swap failed: %v", err)
	}

	if _, err := store.GetSwap(ctx, "0xtx1#1"); err != nil {
		t.Errorf("expected swap 0xtx1#1: %v", err)
	}
	if _, err := store.GetSwap(ctx, "0xtx1#2"); err != nil {
		t.Errorf("expected swap 0xtx1#2: %v", err)
	}
}

func TestProcessSwap_Deterministic(t *testing.T) {
	cfg := testConfig()
	ctx := context.Background()

	run := func() (*domain.Factory, *domain.Bundle, *domain.Pool) {
		store := seedStore(t, cfg)
		proc := New(store, cfg)
		for i, ts := range []int64{1620172900, 1620173000, 1620259400} {
			if err := proc.ProcessSwap(ctx, sellOneWeth("0xtx", i, ts)); err != nil {
				t.Fatalf("swap %d failed: %v", i, err)
			}
		}
		factory, err := store.GetFactory(ctx, cfg.FactoryAddress)
		if err != nil {
			t.Fatalf("GetFactory failed: %v", err)
		}
		bundle, err := store.GetBundle(ctx)
		if err != nil {
			t.Fatalf("GetBundle failed: %v", err)
		}
		pool, err := store.GetPool(ctx, poolAddr)
		if err != nil {
			t.Fatalf("GetPool failed: %v", err)
		}
		return factory, bundle, pool
	}

	f1, b1, p1 := run()
	f2, b2, p2 := run()

	if !f1.VolumeETH.Equal(f2.VolumeETH) || !f1.TotalValueLockedUSD.Equal(f2.TotalValueLockedUSD) {
		t.Errorf("factory state diverged between identical runs")
	}
	if !b1.EthPriceUSD.Equal(b2.EthPriceUSD) {
		t.Errorf("bundle diverged: %s vs %s", b1.EthPriceUSD, b2.EthPriceUSD)
	}
	if !p1.VolumeUSD.Equal(p2.VolumeUSD) || p1.TxCount != p2.TxCount {
		t.Errorf("pool state diverged between identical runs")
	}
}

func TestProcessSwap_TrackedNeverExceedsUntracked(t *testing.T) {
	cfg := testConfig()
	store := seedStore(t, cfg)
	proc := New(store, cfg)
	ctx := context.Background()

	for i, ts := range []int64{1620172900, 1620173000} {
		if err := proc.ProcessSwap(ctx, sellOneWeth("0xtx", i, ts)); err != nil {
			t.Fatalf("swap %d failed: %v", i, err)
		}
	}

	factory, err := store.GetFactory(ctx, cfg.FactoryAddress)
	if err != nil {
		t.Fatalf("GetFactory failed: %v", err)
	}
	if factory.VolumeUSD.GreaterThan(factory.VolumeUSDUntracked) {
		t.Errorf("tracked volume %s exceeds untracked %s", factory.VolumeUSD, factory.VolumeUSDUntracked)
	}
}

func TestProcessSwap_NonWhitelistPoolTracksNothing(t *testing.T) {
	cfg := testConfig()
	store := seedStore(t, cfg)
	ctx := context.Background()

	// Add a pool between two unlisted tokens.
	b := storage.NewBatch()
	b.Tokens["0xexotica"] = &domain.Token{ID: "0xexotica", Decimals: 18, DerivedETH: decimal.NewFromFloat(0.1)}
	b.Tokens["0xexoticb"] = &domain.Token{ID: "0xexoticb", Decimals: 18, DerivedETH: decimal.NewFromFloat(0.2)}
	b.Pools["0xexoticpool"] = &domain.Pool{
		ID:        "0xexoticpool",
		Token0:    "0xexotica",
		Token1:    "0xexoticb",
		FeeTier:   3000,
		Liquidity: big.NewInt(1),
		SqrtPrice: new(big.Int).Lsh(big.NewInt(1), 96),
	}
	if err := store.ApplyBatch(ctx, b); err != nil {
		t.Fatalf("seed exotic pool: %v", err)
	}

	proc := New(store, cfg)
	event := sellOneWeth("0xtx1", 0, 1620172900)
	event.Pool = "0xexoticpool"
	if err := proc.ProcessSwap(ctx, event); err != nil {
		t.Fatalf("ProcessSwap failed: %v", err)
	}

	pool, err := store.GetPool(ctx, "0xexoticpool")
	if err != nil {
		t.Fatalf("GetPool failed: %v", err)
	}
	if !pool.VolumeUSD.IsZero() {
		t.Errorf("expected zero tracked volume on an unlisted pair, got %s", pool.VolumeUSD)
	}
	if pool.VolumeUSDUntracked.IsZero() {
		t.Errorf("expected nonzero untracked volume on an unlisted pair")
	}
}
