package storage

import (
	"context"

	"dex-market-indexer/internal/domain"
)

// EntityStore provides read access to the mutable entity graph plus an
// all-or-nothing batch commit. The processor reads individual entities
// while computing a swap, collects every write into a Batch, and applies
// the batch only if the whole computation succeeded.
type EntityStore interface {
	// GetBundle retrieves the singleton price bundle. Returns ErrNotFound
	// if the store has not been seeded.
	GetBundle(ctx context.Context) (*domain.Bundle, error)

	// GetFactory retrieves the factory row. Returns ErrNotFound if not exists.
	GetFactory(ctx context.Context, id string) (*domain.Factory, error)

	// GetToken retrieves a token by address. Returns ErrNotFound if not exists.
	GetToken(ctx context.Context, id string) (*domain.Token, error)

	// GetPool retrieves a pool by address. Returns ErrNotFound if not exists.
	GetPool(ctx context.Context, id string) (*domain.Pool, error)

	// GetSwap retrieves a processed swap record. Returns ErrNotFound if not exists.
	GetSwap(ctx context.Context, id string) (*domain.Swap, error)

	// GetGlobalDay retrieves a global day bucket. Returns ErrNotFound if not exists.
	GetGlobalDay(ctx context.Context, id string) (*domain.GlobalDayData, error)

	// GetPoolDay retrieves a pool day bucket. Returns ErrNotFound if not exists.
	GetPoolDay(ctx context.Context, id string) (*domain.PoolDayData, error)

	// GetPoolHour retrieves a pool hour bucket. Returns ErrNotFound if not exists.
	GetPoolHour(ctx context.Context, id string) (*domain.PoolHourData, error)

	// GetTokenDay retrieves a token day bucket. Returns ErrNotFound if not exists.
	GetTokenDay(ctx context.Context, id string) (*domain.TokenDayData, error)

	// GetTokenHour retrieves a token hour bucket. Returns ErrNotFound if not exists.
	GetTokenHour(ctx context.Context, id string) (*domain.TokenHourData, error)

	// ApplyBatch upserts every record in the batch atomically: either
	// all writes land or none do.
	ApplyBatch(ctx context.Context, b *Batch) error
}

// SwapEventStore provides access to the append-only raw event log that
// replay rebuilds state from.
type SwapEventStore interface {
	// Insert adds a raw event. Returns ErrDuplicateKey if the
	// (transaction, log index) pair already exists.
	Insert(ctx context.Context, e *domain.SwapEvent) error

	// InsertBulk adds multiple events atomically. Fails the entire batch
	// on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.SwapEvent) error

	// GetByBlockRange retrieves events with block number in [start, end]
	// (inclusive), in canonical order.
	GetByBlockRange(ctx context.Context, start, end uint64) ([]*domain.SwapEvent, error)

	// GetAll retrieves every stored event in canonical order.
	GetAll(ctx context.Context) ([]*domain.SwapEvent, error)
}

// IntervalSnapshotSink receives finished time-bucket rows for analytical
// storage. Sinks are write-only and best-effort relative to the entity
// store: a failed export never rolls back a committed batch.
type IntervalSnapshotSink interface {
	// InsertPoolDays appends pool day rows.
	InsertPoolDays(ctx context.Context, rows []*domain.PoolDayData) error

	// InsertPoolHours appends pool hour rows.
	InsertPoolHours(ctx context.Context, rows []*domain.PoolHourData) error

	// InsertTokenDays appends token day rows.
	InsertTokenDays(ctx context.Context, rows []*domain.TokenDayData) error

	// InsertTokenHours appends token hour rows.
	InsertTokenHours(ctx context.Context, rows []*domain.TokenHourData) error
}
