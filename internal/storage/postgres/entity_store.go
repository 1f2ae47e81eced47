package postgres

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// EntityStore implements storage.EntityStore using PostgreSQL. Batch
// commits run in a single transaction so a half-processed swap can
// never become visible.
type EntityStore struct {
	pool *Pool
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EntityStore = (*EntityStore)(nil)

// fieldParser collects the first parse failure while decoding the TEXT
// columns of one row, so scan sites stay flat.
type fieldParser struct {
	err error
}

func (p *fieldParser) dec(s string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := textToDec(s)
	if err != nil {
		p.err = err
	}
	return d
}

func (p *fieldParser) big(s *string) *big.Int {
	if p.err != nil {
		return nil
	}
	v, err := textToBig(s)
	if err != nil {
		p.err = err
	}
	return v
}

// GetBundle retrieves the singleton price bundle.
func (s *EntityStore) GetBundle(ctx context.Context) (*domain.Bundle, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, eth_price_usd FROM bundles WHERE id = $1`, domain.BundleID)

	var b domain.Bundle
	var price string
	if err := row.Scan(&b.ID, &price); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	var p fieldParser
	b.EthPriceUSD = p.dec(price)
	if p.err != nil {
		return nil, fmt.Errorf("bundle: %w", p.err)
	}
	return &b, nil
}

// GetFactory retrieves the factory row.
func (s *EntityStore) GetFactory(ctx context.Context, id string) (*domain.Factory, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tx_count, volume_eth, volume_usd, volume_usd_untracked,
		       fees_eth, fees_usd,
		       tvl_eth, tvl_usd, tvl_eth_untracked, tvl_usd_untracked
		FROM factories WHERE id = $1
	`, id)

	var f domain.Factory
	var volETH, volUSD, volUntracked, feesETH, feesUSD string
	var tvlETH, tvlUSD, tvlETHUntracked, tvlUSDUntracked string
	err := row.Scan(&f.ID, &f.TxCount,
		&volETH, &volUSD, &volUntracked, &feesETH, &feesUSD,
		&tvlETH, &tvlUSD, &tvlETHUntracked, &tvlUSDUntracked)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get factory: %w", err)
	}

	var p fieldParser
	f.VolumeETH = p.dec(volETH)
	f.VolumeUSD = p.dec(volUSD)
	f.VolumeUSDUntracked = p.dec(volUntracked)
	f.FeesETH = p.dec(feesETH)
	f.FeesUSD = p.dec(feesUSD)
	f.TotalValueLockedETH = p.dec(tvlETH)
	f.TotalValueLockedUSD = p.dec(tvlUSD)
	f.TotalValueLockedETHUntracked = p.dec(tvlETHUntracked)
	f.TotalValueLockedUSDUntracked = p.dec(tvlUSDUntracked)
	if p.err != nil {
		return nil, fmt.Errorf("factory %s: %w", id, p.err)
	}
	return &f, nil
}

// GetToken retrieves a token by address.
func (s *EntityStore) GetToken(ctx context.Context, id string) (*domain.Token, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, decimals, derived_eth, whitelist_pools,
		       volume, volume_usd, volume_usd_untracked, fees_usd,
		       tvl, tvl_usd, tx_count
		FROM tokens WHERE id = $1
	`, id)

	var t domain.Token
	var derivedETH, volume, volumeUSD, volumeUntracked, feesUSD, tvl, tvlUSD string
	err := row.Scan(&t.ID, &t.Decimals, &derivedETH, &t.WhitelistPools,
		&volume, &volumeUSD, &volumeUntracked, &feesUSD,
		&tvl, &tvlUSD, &t.TxCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	var p fieldParser
	t.DerivedETH = p.dec(derivedETH)
	t.Volume = p.dec(volume)
	t.VolumeUSD = p.dec(volumeUSD)
	t.VolumeUSDUntracked = p.dec(volumeUntracked)
	t.FeesUSD = p.dec(feesUSD)
	t.TotalValueLocked = p.dec(tvl)
	t.TotalValueLockedUSD = p.dec(tvlUSD)
	if p.err != nil {
		return nil, fmt.Errorf("token %s: %w", id, p.err)
	}
	return &t, nil
}

// GetPool retrieves a pool by address.
func (s *EntityStore) GetPool(ctx context.Context, id string) (*domain.Pool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, token0, token1, fee_tier,
		       liquidity, sqrt_price, tick,
		       fee_growth_global0_x128, fee_growth_global1_x128,
		       token0_price, token1_price,
		       volume_token0, volume_token1, volume_usd, volume_usd_untracked, fees_usd,
		       tvl_token0, tvl_token1, tvl_eth, tvl_usd, tvl_eth_untracked, tvl_usd_untracked,
		       tx_count
		FROM pools WHERE id = $1
	`, id)

	var pl domain.Pool
	var liquidity, sqrtPrice, feeGrowth0, feeGrowth1 *string
	var price0, price1 string
	var volT0, volT1, volUSD, volUntracked, feesUSD string
	var tvlT0, tvlT1, tvlETH, tvlUSD, tvlETHUntracked, tvlUSDUntracked string
	err := row.Scan(&pl.ID, &pl.Token0, &pl.Token1, &pl.FeeTier,
		&liquidity, &sqrtPrice, &pl.Tick, &feeGrowth0, &feeGrowth1,
		&price0, &price1,
		&volT0, &volT1, &volUSD, &volUntracked, &feesUSD,
		&tvlT0, &tvlT1, &tvlETH, &tvlUSD, &tvlETHUntracked, &tvlUSDUntracked,
		&pl.TxCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool: %w", err)
	}

	var p fieldParser
	pl.Liquidity = p.big(liquidity)
	pl.SqrtPrice = p.big(sqrtPrice)
	pl.FeeGrowthGlobal0X128 = p.big(feeGrowth0)
	pl.FeeGrowthGlobal1X128 = p.big(feeGrowth1)
	pl.Token0Price = p.dec(price0)
	pl.Token1Price = p.dec(price1)
	pl.VolumeToken0 = p.dec(volT0)
	pl.VolumeToken1 = p.dec(volT1)
	pl.VolumeUSD = p.dec(volUSD)
	pl.VolumeUSDUntracked = p.dec(volUntracked)
	pl.FeesUSD = p.dec(feesUSD)
	pl.TotalValueLockedToken0 = p.dec(tvlT0)
	pl.TotalValueLockedToken1 = p.dec(tvlT1)
	pl.TotalValueLockedETH = p.dec(tvlETH)
	pl.TotalValueLockedUSD = p.dec(tvlUSD)
	pl.TotalValueLockedETHUntracked = p.dec(tvlETHUntracked)
	pl.TotalValueLockedUSDUntracked = p.dec(tvlUSDUntracked)
	if p.err != nil {
		return nil, fmt.Errorf("pool %s: %w", id, p.err)
	}
	return &pl, nil
}

// GetSwap retrieves a processed swap record.
func (s *EntityStore) GetSwap(ctx context.Context, id string) (*domain.Swap, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, transaction_id, timestamp, pool, token0, token1,
		       sender, origin, recipient,
		       amount0, amount1, amount_usd, sqrt_price_x96, tick, log_index
		FROM swaps WHERE id = $1
	`, id)

	var sw domain.Swap
	var amount0, amount1, amountUSD string
	var sqrtPrice *string
	err := row.Scan(&sw.ID, &sw.TransactionID, &sw.Timestamp,
		&sw.Pool, &sw.Token0, &sw.Token1,
		&sw.Sender, &sw.Origin, &sw.Recipient,
		&amount0, &amount1, &amountUSD, &sqrtPrice, &sw.Tick, &sw.LogIndex)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get swap: %w", err)
	}

	var p fieldParser
	sw.Amount0 = p.dec(amount0)
	sw.Amount1 = p.dec(amount1)
	sw.AmountUSD = p.dec(amountUSD)
	sw.SqrtPriceX96 = p.big(sqrtPrice)
	if p.err != nil {
		return nil, fmt.Errorf("swap %s: %w", id, p.err)
	}
	return &sw, nil
}

// GetGlobalDay retrieves a global day bucket.
func (s *EntityStore) GetGlobalDay(ctx context.Context, id string) (*domain.GlobalDayData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, date, volume_eth, volume_usd, volume_usd_untracked,
		       fees_usd, tvl_usd, tx_count
		FROM global_day_data WHERE id = $1
	`, id)

	var d domain.GlobalDayData
	var volETH, volUSD, volUntracked, feesUSD, tvlUSD string
	err := row.Scan(&d.ID, &d.Date, &volETH, &volUSD, &volUntracked, &feesUSD, &tvlUSD, &d.TxCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get global day: %w", err)
	}

	var p fieldParser
	d.VolumeETH = p.dec(volETH)
	d.VolumeUSD = p.dec(volUSD)
	d.VolumeUSDUntracked = p.dec(volUntracked)
	d.FeesUSD = p.dec(feesUSD)
	d.TotalValueLockedUSD = p.dec(tvlUSD)
	if p.err != nil {
		return nil, fmt.Errorf("global day %s: %w", id, p.err)
	}
	return &d, nil
}

// GetPoolDay retrieves a pool day bucket.
func (s *EntityStore) GetPoolDay(ctx context.Context, id string) (*domain.PoolDayData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, date, pool, open, high, low, close,
		       token0_price, token1_price,
		       liquidity, sqrt_price, tick,
		       fee_growth_global0_x128, fee_growth_global1_x128,
		       tvl_usd, volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		FROM pool_day_data WHERE id = $1
	`, id)

	var d domain.PoolDayData
	var open, high, low, closePrice, price0, price1 string
	var liquidity, sqrtPrice, feeGrowth0, feeGrowth1 *string
	var tvlUSD, volT0, volT1, volUSD, feesUSD string
	err := row.Scan(&d.ID, &d.Date, &d.Pool, &open, &high, &low, &closePrice,
		&price0, &price1, &liquidity, &sqrtPrice, &d.Tick, &feeGrowth0, &feeGrowth1,
		&tvlUSD, &volT0, &volT1, &volUSD, &feesUSD, &d.TxCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool day: %w", err)
	}

	var p fieldParser
	d.Open = p.dec(open)
	d.High = p.dec(high)
	d.Low = p.dec(low)
	d.Close = p.dec(closePrice)
	d.Token0Price = p.dec(price0)
	d.Token1Price = p.dec(price1)
	d.Liquidity = p.big(liquidity)
	d.SqrtPrice = p.big(sqrtPrice)
	d.FeeGrowthGlobal0X128 = p.big(feeGrowth0)
	d.FeeGrowthGlobal1X128 = p.big(feeGrowth1)
	d.TotalValueLockedUSD = p.dec(tvlUSD)
	d.VolumeToken0 = p.dec(volT0)
	d.VolumeToken1 = p.dec(volT1)
	d.VolumeUSD = p.dec(volUSD)
	d.FeesUSD = p.dec(feesUSD)
	if p.err != nil {
		return nil, fmt.Errorf("pool day %s: %w", id, p.err)
	}
	return &d, nil
}

// GetPoolHour retrieves a pool hour bucket.
func (s *EntityStore) GetPoolHour(ctx context.Context, id string) (*domain.PoolHourData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, period_start_unix, pool, open, high, low, close,
		       token0_price, token1_price,
		       liquidity, sqrt_price, tick,
		       fee_growth_global0_x128, fee_growth_global1_x128,
		       tvl_usd, volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		FROM pool_hour_data WHERE id = $1
	`, id)

	var d domain.PoolHourData
	var open, high, low, closePrice, price0, price1 string
	var liquidity, sqrtPrice, feeGrowth0, feeGrowth1 *string
	var tvlUSD, volT0, volT1, volUSD, feesUSD string
	err := row.Scan(&d.ID, &d.PeriodStartUnix, &d.Pool, &open, &high, &low, &closePrice,
		&price0, &price1, &liquidity, &sqrtPrice, &d.Tick, &feeGrowth0, &feeGrowth1,
		&tvlUSD, &volT0, &volT1, &volUSD, &feesUSD, &d.TxCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool hour: %w", err)
	}

	var p fieldParser
	d.Open = p.dec(open)
	d.High = p.dec(high)
	d.Low = p.dec(low)
	d.Close = p.dec(closePrice)
	d.Token0Price = p.dec(price0)
	d.Token1Price = p.dec(price1)
	d.Liquidity = p.big(liquidity)
	d.SqrtPrice = p.big(sqrtPrice)
	d.FeeGrowthGlobal0X128 = p.big(feeGrowth0)
	d.FeeGrowthGlobal1X128 = p.big(feeGrowth1)
	d.TotalValueLockedUSD = p.dec(tvlUSD)
	d.VolumeToken0 = p.dec(volT0)
	d.VolumeToken1 = p.dec(volT1)
	d.VolumeUSD = p.dec(volUSD)
	d.FeesUSD = p.dec(feesUSD)
	if p.err != nil {
		return nil, fmt.Errorf("pool hour %s: %w", id, p.err)
	}
	return &d, nil
}

// GetTokenDay retrieves a token day bucket.
func (s *EntityStore) GetTokenDay(ctx context.Context, id string) (*domain.TokenDayData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, date, token, volume, volume_usd, volume_usd_untracked, fees_usd,
		       open, high, low, close, price_usd, tvl, tvl_usd
		FROM token_day_data WHERE id = $1
	`, id)

	var d domain.TokenDayData
	var volume, volUSD, volUntracked, feesUSD string
	var open, high, low, closePrice, priceUSD, tvl, tvlUSD string
	err := row.Scan(&d.ID, &d.Date, &d.Token, &volume, &volUSD, &volUntracked, &feesUSD,
		&open, &high, &low, &closePrice, &priceUSD, &tvl, &tvlUSD)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token day: %w", err)
	}

	var p fieldParser
	d.Volume = p.dec(volume)
	d.VolumeUSD = p.dec(volUSD)
	d.VolumeUSDUntracked = p.dec(volUntracked)
	d.FeesUSD = p.dec(feesUSD)
	d.Open = p.dec(open)
	d.High = p.dec(high)
	d.Low = p.dec(low)
	d.Close = p.dec(closePrice)
	d.PriceUSD = p.dec(priceUSD)
	d.TotalValueLocked = p.dec(tvl)
	d.TotalValueLockedUSD = p.dec(tvlUSD)
	if p.err != nil {
		return nil, fmt.Errorf("token day %s: %w", id, p.err)
	}
	return &d, nil
}

// GetTokenHour retrieves a token hour bucket.
func (s *EntityStore) GetTokenHour(ctx context.Context, id string) (*domain.TokenHourData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, period_start_unix, token, volume, volume_usd, volume_usd_untracked, fees_usd,
		       open, high, low, close, price_usd, tvl, tvl_usd
		FROM token_hour_data WHERE id = $1
	`, id)

	var d domain.TokenHourData
	var volume, volUSD, volUntracked, feesUSD string
	var open, high, low, closePrice, priceUSD, tvl, tvlUSD string
	err := row.Scan(&d.ID, &d.PeriodStartUnix, &d.Token, &volume, &volUSD, &volUntracked, &feesUSD,
		&open, &high, &low, &closePrice, &priceUSD, &tvl, &tvlUSD)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token hour: %w", err)
	}

	var p fieldParser
	d.Volume = p.dec(volume)
	d.VolumeUSD = p.dec(volUSD)
	d.VolumeUSDUntracked = p.dec(volUntracked)
	d.FeesUSD = p.dec(feesUSD)
	d.Open = p.dec(open)
	d.High = p.dec(high)
	d.Low = p.dec(low)
	d.Close = p.dec(closePrice)
	d.PriceUSD = p.dec(priceUSD)
	d.TotalValueLocked = p.dec(tvl)
	d.TotalValueLockedUSD = p.dec(tvlUSD)
	if p.err != nil {
		return nil, fmt.Errorf("token hour %s: %w", id, p.err)
	}
	return &d, nil
}

// ApplyBatch upserts every record in the batch inside one transaction.
func (s *EntityStore) ApplyBatch(ctx context.Context, b *storage.Batch) error {
	if b == nil {
		return storage.ErrInvalidInput
	}
	if b.Empty() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if b.Bundle != nil {
		if err := upsertBundle(ctx, tx, b.Bundle); err != nil {
			return err
		}
	}
	if b.Factory != nil {
		if err := upsertFactory(ctx, tx, b.Factory); err != nil {
			return err
		}
	}
	for _, t := range b.Tokens {
		if err := upsertToken(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, pl := range b.Pools {
		if err := upsertPool(ctx, tx, pl); err != nil {
			return err
		}
	}
	for _, sw := range b.Swaps {
		if err := upsertSwap(ctx, tx, sw); err != nil {
			return err
		}
	}
	for _, d := range b.GlobalDays {
		if err := upsertGlobalDay(ctx, tx, d); err != nil {
			return err
		}
	}
	for _, d := range b.PoolDays {
		if err := upsertPoolDay(ctx, tx, d); err != nil {
			return err
		}
	}
	for _, d := range b.PoolHours {
		if err := upsertPoolHour(ctx, tx, d); err != nil {
			return err
		}
	}
	for _, d := range b.TokenDays {
		if err := upsertTokenDay(ctx, tx, d); err != nil {
			return err
		}
	}
	for _, d := range b.TokenHours {
		if err := upsertTokenHour(ctx, tx, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func upsertBundle(ctx context.Context, tx pgx.Tx, b *domain.Bundle) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bundles (id, eth_price_usd) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET eth_price_usd = EXCLUDED.eth_price_usd
	`, b.ID, decToText(b.EthPriceUSD))
	if err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	return nil
}

func upsertFactory(ctx context.Context, tx pgx.Tx, f *domain.Factory) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO factories (
			id, tx_count, volume_eth, volume_usd, volume_usd_untracked,
			fees_eth, fees_usd, tvl_eth, tvl_usd, tvl_eth_untracked, tvl_usd_untracked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			tx_count = EXCLUDED.tx_count,
			volume_eth = EXCLUDED.volume_eth,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_eth = EXCLUDED.fees_eth,
			fees_usd = EXCLUDED.fees_usd,
			tvl_eth = EXCLUDED.tvl_eth,
			tvl_usd = EXCLUDED.tvl_usd,
			tvl_eth_untracked = EXCLUDED.tvl_eth_untracked,
			tvl_usd_untracked = EXCLUDED.tvl_usd_untracked
	`, f.ID, f.TxCount,
		decToText(f.VolumeETH), decToText(f.VolumeUSD), decToText(f.VolumeUSDUntracked),
		decToText(f.FeesETH), decToText(f.FeesUSD),
		decToText(f.TotalValueLockedETH), decToText(f.TotalValueLockedUSD),
		decToText(f.TotalValueLockedETHUntracked), decToText(f.TotalValueLockedUSDUntracked))
	if err != nil {
		return fmt.Errorf("upsert factory %s: %w", f.ID, err)
	}
	return nil
}

func upsertToken(ctx context.Context, tx pgx.Tx, t *domain.Token) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO tokens (
			id, decimals, derived_eth, whitelist_pools,
			volume, volume_usd, volume_usd_untracked, fees_usd,
			tvl, tvl_usd, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			decimals = EXCLUDED.decimals,
			derived_eth = EXCLUDED.derived_eth,
			whitelist_pools = EXCLUDED.whitelist_pools,
			volume = EXCLUDED.volume,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_usd = EXCLUDED.fees_usd,
			tvl = EXCLUDED.tvl,
			tvl_usd = EXCLUDED.tvl_usd,
			tx_count = EXCLUDED.tx_count
	`, t.ID, t.Decimals, decToText(t.DerivedETH), t.WhitelistPools,
		decToText(t.Volume), decToText(t.VolumeUSD), decToText(t.VolumeUSDUntracked),
		decToText(t.FeesUSD), decToText(t.TotalValueLocked), decToText(t.TotalValueLockedUSD),
		t.TxCount)
	if err != nil {
		return fmt.Errorf("upsert token %s: %w", t.ID, err)
	}
	return nil
}

func upsertPool(ctx context.Context, tx pgx.Tx, pl *domain.Pool) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pools (
			id, token0, token1, fee_tier,
			liquidity, sqrt_price, tick,
			fee_growth_global0_x128, fee_growth_global1_x128,
			token0_price, token1_price,
			volume_token0, volume_token1, volume_usd, volume_usd_untracked, fees_usd,
			tvl_token0, tvl_token1, tvl_eth, tvl_usd, tvl_eth_untracked, tvl_usd_untracked,
			tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		          $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			fee_tier = EXCLUDED.fee_tier,
			liquidity = EXCLUDED.liquidity,
			sqrt_price = EXCLUDED.sqrt_price,
			tick = EXCLUDED.tick,
			fee_growth_global0_x128 = EXCLUDED.fee_growth_global0_x128,
			fee_growth_global1_x128 = EXCLUDED.fee_growth_global1_x128,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			volume_token0 = EXCLUDED.volume_token0,
			volume_token1 = EXCLUDED.volume_token1,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_usd = EXCLUDED.fees_usd,
			tvl_token0 = EXCLUDED.tvl_token0,
			tvl_token1 = EXCLUDED.tvl_token1,
			tvl_eth = EXCLUDED.tvl_eth,
			tvl_usd = EXCLUDED.tvl_usd,
			tvl_eth_untracked = EXCLUDED.tvl_eth_untracked,
			tvl_usd_untracked = EXCLUDED.tvl_usd_untracked,
			tx_count = EXCLUDED.tx_count
	`, pl.ID, pl.Token0, pl.Token1, pl.FeeTier,
		bigToText(pl.Liquidity), bigToText(pl.SqrtPrice), pl.Tick,
		bigToText(pl.FeeGrowthGlobal0X128), bigToText(pl.FeeGrowthGlobal1X128),
		decToText(pl.Token0Price), decToText(pl.Token1Price),
		decToText(pl.VolumeToken0), decToText(pl.VolumeToken1),
		decToText(pl.VolumeUSD), decToText(pl.VolumeUSDUntracked), decToText(pl.FeesUSD),
		decToText(pl.TotalValueLockedToken0), decToText(pl.TotalValueLockedToken1),
		decToText(pl.TotalValueLockedETH), decToText(pl.TotalValueLockedUSD),
		decToText(pl.TotalValueLockedETHUntracked), decToText(pl.TotalValueLockedUSDUntracked),
		pl.TxCount)
	if err != nil {
		return fmt.Errorf("upsert pool %s: %w", pl.ID, err)
	}
	return nil
}

func upsertSwap(ctx context.Context, tx pgx.Tx, sw *domain.Swap) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO swaps (
			id, transaction_id, timestamp, pool, token0, token1,
			sender, origin, recipient,
			amount0, amount1, amount_usd, sqrt_price_x96, tick, log_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			amount0 = EXCLUDED.amount0,
			amount1 = EXCLUDED.amount1,
			amount_usd = EXCLUDED.amount_usd,
			sqrt_price_x96 = EXCLUDED.sqrt_price_x96,
			tick = EXCLUDED.tick,
			log_index = EXCLUDED.log_index
	`, sw.ID, sw.TransactionID, sw.Timestamp, sw.Pool, sw.Token0, sw.Token1,
		sw.Sender, sw.Origin, sw.Recipient,
		decToText(sw.Amount0), decToText(sw.Amount1), decToText(sw.AmountUSD),
		bigToText(sw.SqrtPriceX96), sw.Tick, sw.LogIndex)
	if err != nil {
		return fmt.Errorf("upsert swap %s: %w", sw.ID, err)
	}
	return nil
}

func upsertGlobalDay(ctx context.Context, tx pgx.Tx, d *domain.GlobalDayData) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO global_day_data (
			id, date, volume_eth, volume_usd, volume_usd_untracked,
			fees_usd, tvl_usd, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			volume_eth = EXCLUDED.volume_eth,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_usd = EXCLUDED.fees_usd,
			tvl_usd = EXCLUDED.tvl_usd,
			tx_count = EXCLUDED.tx_count
	`, d.ID, d.Date,
		decToText(d.VolumeETH), decToText(d.VolumeUSD), decToText(d.VolumeUSDUntracked),
		decToText(d.FeesUSD), decToText(d.TotalValueLockedUSD), d.TxCount)
	if err != nil {
		return fmt.Errorf("upsert global day %s: %w", d.ID, err)
	}
	return nil
}

func upsertPoolDay(ctx context.Context, tx pgx.Tx, d *domain.PoolDayData) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pool_day_data (
			id, date, pool, open, high, low, close,
			token0_price, token1_price,
			liquidity, sqrt_price, tick,
			fee_growth_global0_x128, fee_growth_global1_x128,
			tvl_usd, volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			liquidity = EXCLUDED.liquidity,
			sqrt_price = EXCLUDED.sqrt_price,
			tick = EXCLUDED.tick,
			fee_growth_global0_x128 = EXCLUDED.fee_growth_global0_x128,
			fee_growth_global1_x128 = EXCLUDED.fee_growth_global1_x128,
			tvl_usd = EXCLUDED.tvl_usd,
			volume_token0 = EXCLUDED.volume_token0,
			volume_token1 = EXCLUDED.volume_token1,
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			tx_count = EXCLUDED.tx_count
	`, d.ID, d.Date, d.Pool,
		decToText(d.Open), decToText(d.High), decToText(d.Low), decToText(d.Close),
		decToText(d.Token0Price), decToText(d.Token1Price),
		bigToText(d.Liquidity), bigToText(d.SqrtPrice), d.Tick,
		bigToText(d.FeeGrowthGlobal0X128), bigToText(d.FeeGrowthGlobal1X128),
		decToText(d.TotalValueLockedUSD),
		decToText(d.VolumeToken0), decToText(d.VolumeToken1),
		decToText(d.VolumeUSD), decToText(d.FeesUSD), d.TxCount)
	if err != nil {
		return fmt.Errorf("upsert pool day %s: %w", d.ID, err)
	}
	return nil
}

func upsertPoolHour(ctx context.Context, tx pgx.Tx, d *domain.PoolHourData) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pool_hour_data (
			id, period_start_unix, pool, open, high, low, close,
			token0_price, token1_price,
			liquidity, sqrt_price, tick,
			fee_growth_global0_x128, fee_growth_global1_x128,
			tvl_usd, volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			liquidity = EXCLUDED.liquidity,
			sqrt_price = EXCLUDED.sqrt_price,
			tick = EXCLUDED.tick,
			fee_growth_global0_x128 = EXCLUDED.fee_growth_global0_x128,
			fee_growth_global1_x128 = EXCLUDED.fee_growth_global1_x128,
			tvl_usd = EXCLUDED.tvl_usd,
			volume_token0 = EXCLUDED.volume_token0,
			volume_token1 = EXCLUDED.volume_token1,
			volume_usd = EXCLUDED.volume_usd,
			fees_usd = EXCLUDED.fees_usd,
			tx_count = EXCLUDED.tx_count
	`, d.ID, d.PeriodStartUnix, d.Pool,
		decToText(d.Open), decToText(d.High), decToText(d.Low), decToText(d.Close),
		decToText(d.Token0Price), decToText(d.Token1Price),
		bigToText(d.Liquidity), bigToText(d.SqrtPrice), d.Tick,
		bigToText(d.FeeGrowthGlobal0X128), bigToText(d.FeeGrowthGlobal1X128),
		decToText(d.TotalValueLockedUSD),
		decToText(d.VolumeToken0), decToText(d.VolumeToken1),
		decToText(d.VolumeUSD), decToText(d.FeesUSD), d.TxCount)
	if err != nil {
		return fmt.Errorf("upsert pool hour %s: %w", d.ID, err)
	}
	return nil
}

func upsertTokenDay(ctx context.Context, tx pgx.Tx, d *domain.TokenDayData) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO token_day_data (
			id, date, token, volume, volume_usd, volume_usd_untracked, fees_usd,
			open, high, low, close, price_usd, tvl, tvl_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			volume = EXCLUDED.volume,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_usd = EXCLUDED.fees_usd,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			price_usd = EXCLUDED.price_usd,
			tvl = EXCLUDED.tvl,
			tvl_usd = EXCLUDED.tvl_usd
	`, d.ID, d.Date, d.Token,
		decToText(d.Volume), decToText(d.VolumeUSD), decToText(d.VolumeUSDUntracked),
		decToText(d.FeesUSD),
		decToText(d.Open), decToText(d.High), decToText(d.Low), decToText(d.Close),
		decToText(d.PriceUSD), decToText(d.TotalValueLocked), decToText(d.TotalValueLockedUSD))
	if err != nil {
		return fmt.Errorf("upsert token day %s: %w", d.ID, err)
	}
	return nil
}

func upsertTokenHour(ctx context.Context, tx pgx.Tx, d *domain.TokenHourData) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO token_hour_data (
			id, period_start_unix, token, volume, volume_usd, volume_usd_untracked, fees_usd,
			open, high, low, close, price_usd, tvl, tvl_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			volume = EXCLUDED.volume,
			volume_usd = EXCLUDED.volume_usd,
			volume_usd_untracked = EXCLUDED.volume_usd_untracked,
			fees_usd = EXCLUDED.fees_usd,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			price_usd = EXCLUDED.price_usd,
			tvl = EXCLUDED.tvl,
			tvl_usd = EXCLUDED.tvl_usd
	`, d.ID, d.PeriodStartUnix, d.Token,
		decToText(d.Volume), decToText(d.VolumeUSD), decToText(d.VolumeUSDUntracked),
		decToText(d.FeesUSD),
		decToText(d.Open), decToText(d.High), decToText(d.Low), decToText(d.Close),
		decToText(d.PriceUSD), decToText(d.TotalValueLocked), decToText(d.TotalValueLockedUSD))
	if err != nil {
		return fmt.Errorf("upsert token hour %s: %w", d.ID, err)
	}
	return nil
}
