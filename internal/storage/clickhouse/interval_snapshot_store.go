package clickhouse

import (
	"context"
	"fmt"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// IntervalSnapshotStore implements storage.IntervalSnapshotSink using
// ClickHouse. Rows are appended in native batches; ReplacingMergeTree
// absorbs re-exports of the same bucket, so inserts never check for
// duplicates.
type IntervalSnapshotStore struct {
	conn *Conn
}

// NewIntervalSnapshotStore creates a new IntervalSnapshotStore.
func NewIntervalSnapshotStore(conn *Conn) *IntervalSnapshotStore {
	return &IntervalSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IntervalSnapshotSink = (*IntervalSnapshotStore)(nil)

// InsertPoolDays appends pool day rows.
func (s *IntervalSnapshotStore) InsertPoolDays(ctx context.Context, rows []*domain.PoolDayData) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_day_snapshots (
			id, date, pool, open, high, low, close,
			token0_price, token1_price, tvl_usd,
			volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare pool day batch: %w", err)
	}

	for _, d := range rows {
		err = batch.Append(
			d.ID, d.Date, d.Pool,
			d.Open.InexactFloat64(), d.High.InexactFloat64(),
			d.Low.InexactFloat64(), d.Close.InexactFloat64(),
			d.Token0Price.InexactFloat64(), d.Token1Price.InexactFloat64(),
			d.TotalValueLockedUSD.InexactFloat64(),
			d.VolumeToken0.InexactFloat64(), d.VolumeToken1.InexactFloat64(),
			d.VolumeUSD.InexactFloat64(), d.FeesUSD.InexactFloat64(),
			d.TxCount,
		)
		if err != nil {
			return fmt.Errorf("append pool day %s: %w", d.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send pool day batch: %w", err)
	}
	return nil
}

// InsertPoolHours appends pool hour rows.
func (s *IntervalSnapshotStore) InsertPoolHours(ctx context.Context, rows []*domain.PoolHourData) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_hour_snapshots (
			id, period_start_unix, pool, open, high, low, close,
			token0_price, token1_price, tvl_usd,
			volume_token0, volume_token1, volume_usd, fees_usd, tx_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare pool hour batch: %w", err)
	}

	for _, d := range rows {
		err = batch.Append(
			d.ID, d.PeriodStartUnix, d.Pool,
			d.Open.InexactFloat64(), d.High.InexactFloat64(),
			d.Low.InexactFloat64(), d.Close.InexactFloat64(),
			d.Token0Price.InexactFloat64(), d.Token1Price.InexactFloat64(),
			d.TotalValueLockedUSD.InexactFloat64(),
			d.VolumeToken0.InexactFloat64(), d.VolumeToken1.InexactFloat64(),
			d.VolumeUSD.InexactFloat64(), d.FeesUSD.InexactFloat64(),
			d.TxCount,
		)
		if err != nil {
			return fmt.Errorf("append pool hour %s: %w", d.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send pool hour batch: %w", err)
	}
	return nil
}

// InsertTokenDays appends token day rows.
func (s *IntervalSnapshotStore) InsertTokenDays(ctx context.Context, rows []*domain.TokenDayData) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_day_snapshots (
			id, date, token, volume, volume_usd, volume_usd_untracked, fees_usd,
			open, high, low, close, price_usd, tvl, tvl_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare token day batch: %w", err)
	}

	for _, d := range rows {
		err = batch.Append(
			d.ID, d.Date, d.Token,
			d.Volume.InexactFloat64(), d.VolumeUSD.InexactFloat64(),
			d.VolumeUSDUntracked.InexactFloat64(), d.FeesUSD.InexactFloat64(),
			d.Open.InexactFloat64(), d.High.InexactFloat64(),
			d.Low.InexactFloat64(), d.Close.InexactFloat64(),
			d.PriceUSD.InexactFloat64(),
			d.TotalValueLocked.InexactFloat64(), d.TotalValueLockedUSD.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("append token day %s: %w", d.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send token day batch: %w", err)
	}
	return nil
}

// InsertTokenHours appends token hour rows.
func (s *IntervalSnapshotStore) InsertTokenHours(ctx context.Context, rows []*domain.TokenHourData) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_hour_snapshots (
			id, period_start_unix, token, volume, volume_usd, volume_usd_untracked, fees_usd,
			open, high, low, close, price_usd, tvl, tvl_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare token hour batch: %w", err)
	}

	for _, d := range rows {
		err = batch.Append(
			d.ID, d.PeriodStartUnix, d.Token,
			d.Volume.InexactFloat64(), d.VolumeUSD.InexactFloat64(),
			d.VolumeUSDUntracked.InexactFloat64(), d.FeesUSD.InexactFloat64(),
			d.Open.InexactFloat64(), d.High.InexactFloat64(),
			d.Low.InexactFloat64(), d.Close.InexactFloat64(),
			d.PriceUSD.InexactFloat64(),
			d.TotalValueLocked.InexactFloat64(), d.TotalValueLockedUSD.InexactFloat64(),
		)
		if err != nil {
			return fmt.Errorf("append token hour %s: %w", d.ID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send token hour batch: %w", err)
	}
	return nil
}
