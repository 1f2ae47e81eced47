package postgres

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

func testEvent(tx string, block uint64, txIndex, logIndex int) *domain.SwapEvent {
	amount0, _ := new(big.Int).SetString("1000000000000000000", 10)
	return &domain.SwapEvent{
		Pool:          "0xpool",
		TransactionID: tx,
		BlockNumber:   block,
		BlockTime:     1620172900,
		TxIndex:       txIndex,
		LogIndex:      logIndex,
		Sender:        "0xsender",
		Recipient:     "0xrecipient",
		Amount0:       amount0,
		Amount1:       big.NewInt(-2_000_000_000),
		SqrtPriceX96:  new(big.Int).Lsh(big.NewInt(1), 96),
		Liquidity:     big.NewInt(500_000),
		Tick:          -200697,
	}
}

func TestSwapEventStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapEventStore(pool)
	ctx := context.Background()

	e := testEvent("0xtx1", 100, 0, 2)
	require.NoError(t, store.Insert(ctx, e))

	events, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, "0xtx1", got.TransactionID)
	assert.Equal(t, uint64(100), got.BlockNumber)
	assert.Equal(t, 2, got.LogIndex)
	assert.Zero(t, got.Amount0.Cmp(e.Amount0))
	assert.Zero(t, got.Amount1.Cmp(e.Amount1))
	assert.Zero(t, got.SqrtPriceX96.Cmp(e.SqrtPriceX96))
	assert.Equal(t, int32(-200697), got.Tick)
}

func TestSwapEventStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapEventStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testEvent("0xtx1", 100, 0, 0)))

	err := store.Insert(ctx, testEvent("0xtx1", 100, 0, 0))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same transaction, different log index is a distinct event.
	require.NoError(t, store.Insert(ctx, testEvent("0xtx1", 100, 0, 1)))
}

func TestSwapEventStore_InsertBulkAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapEventStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testEvent("0xtx1", 100, 0, 0)))

	// Bulk insert containing a duplicate must leave no partial writes.
	err := store.InsertBulk(ctx, []*domain.SwapEvent{
		testEvent("0xtx2", 101, 0, 0),
		testEvent("0xtx1", 100, 0, 0),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	events, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSwapEventStore_GetByBlockRangeCanonicalOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapEventStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.SwapEvent{
		testEvent("0xtx3", 102, 0, 0),
		testEvent("0xtx1", 100, 1, 5),
		testEvent("0xtx2", 100, 1, 2),
		testEvent("0xtx4", 103, 0, 0),
	}))

	events, err := store.GetByBlockRange(ctx, 100, 102)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "0xtx2", events[0].TransactionID)
	assert.Equal(t, "0xtx1", events[1].TransactionID)
	assert.Equal(t, "0xtx3", events[2].TransactionID)
}
