package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// SwapEventStore implements storage.SwapEventStore using PostgreSQL.
// The table is the durable event log replay rebuilds state from, so
// rows are never updated, only inserted.
type SwapEventStore struct {
	pool *Pool
}

// NewSwapEventStore creates a new SwapEventStore.
func NewSwapEventStore(pool *Pool) *SwapEventStore {
	return &SwapEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapEventStore = (*SwapEventStore)(nil)

const insertSwapEventSQL = `
	INSERT INTO swap_events (
		transaction_id, log_index, pool, block_number, block_time, tx_index,
		sender, origin, recipient,
		amount0, amount1, sqrt_price_x96, liquidity, tick
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// Insert adds a raw event. Returns ErrDuplicateKey if the
// (transaction, log index) pair already exists.
func (s *SwapEventStore) Insert(ctx context.Context, e *domain.SwapEvent) error {
	_, err := s.pool.Exec(ctx, insertSwapEventSQL, swapEventArgs(e)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails the entire batch on
// any duplicate.
func (s *SwapEventStore) InsertBulk(ctx context.Context, events []*domain.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if _, err := tx.Exec(ctx, insertSwapEventSQL, swapEventArgs(e)...); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert swap event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByBlockRange retrieves events with block number in [start, end],
// in canonical (block, tx index, log index) order.
func (s *SwapEventStore) GetByBlockRange(ctx context.Context, start, end uint64) ([]*domain.SwapEvent, error) {
	query := `
		SELECT transaction_id, log_index, pool, block_number, block_time, tx_index,
		       sender, origin, recipient,
		       amount0, amount1, sqrt_price_x96, liquidity, tick
		FROM swap_events
		WHERE block_number >= $1 AND block_number <= $2
		ORDER BY block_number ASC, tx_index ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, clampBlock(start), clampBlock(end))
	if err != nil {
		return nil, fmt.Errorf("get swap events by block range: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// GetAll retrieves every stored event in canonical order.
func (s *SwapEventStore) GetAll(ctx context.Context) ([]*domain.SwapEvent, error) {
	query := `
		SELECT transaction_id, log_index, pool, block_number, block_time, tx_index,
		       sender, origin, recipient,
		       amount0, amount1, sqrt_price_x96, liquidity, tick
		FROM swap_events
		ORDER BY block_number ASC, tx_index ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all swap events: %w", err)
	}
	defer rows.Close()

	return scanSwapEvents(rows)
}

// clampBlock caps block numbers to the BIGINT range the column holds.
func clampBlock(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func swapEventArgs(e *domain.SwapEvent) []any {
	return []any{
		e.TransactionID, e.LogIndex, e.Pool, clampBlock(e.BlockNumber), e.BlockTime, e.TxIndex,
		e.Sender, e.Origin, e.Recipient,
		bigToText(e.Amount0), bigToText(e.Amount1),
		bigToText(e.SqrtPriceX96), bigToText(e.Liquidity), e.Tick,
	}
}

// scanSwapEvents scans multiple rows into a slice of SwapEvent.
func scanSwapEvents(rows pgx.Rows) ([]*domain.SwapEvent, error) {
	var events []*domain.SwapEvent

	for rows.Next() {
		var e domain.SwapEvent
		var blockNumber int64
		var amount0, amount1, sqrtPrice, liquidity *string

		err := rows.Scan(
			&e.TransactionID, &e.LogIndex, &e.Pool, &blockNumber, &e.BlockTime, &e.TxIndex,
			&e.Sender, &e.Origin, &e.Recipient,
			&amount0, &amount1, &sqrtPrice, &liquidity, &e.Tick)
		if err != nil {
			return nil, fmt.Errorf("scan swap event row: %w", err)
		}
		e.BlockNumber = uint64(blockNumber)

		var p fieldParser
		e.Amount0 = p.big(amount0)
		e.Amount1 = p.big(amount1)
		e.SqrtPriceX96 = p.big(sqrtPrice)
		e.Liquidity = p.big(liquidity)
		if p.err != nil {
			return nil, fmt.Errorf("swap event %s#%d: %w", e.TransactionID, e.LogIndex, p.err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap event rows: %w", err)
	}

	return events, nil
}
