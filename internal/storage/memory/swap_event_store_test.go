package memory

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

func testEvent(txID string, block uint64, txIndex, logIndex int) *domain.SwapEvent {
	return &domain.SwapEvent{
		Pool:          "0xpool",
		TransactionID: txID,
		BlockNumber:   block,
		TxIndex:       txIndex,
		LogIndex:      logIndex,
		Amount0:       big.NewInt(100),
		Amount1:       big.NewInt(-200),
		SqrtPriceX96:  big.NewInt(1 << 40),
	}
}

func TestSwapEventStore_InsertAndDuplicate(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	e := testEvent("0xtx1", 100, 0, 3)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Insert(ctx, testEvent("0xtx1", 100, 0, 3)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same transaction, different log index is a distinct event.
	if err := store.Insert(ctx, testEvent("0xtx1", 100, 0, 7)); err != nil {
		t.Errorf("Insert of distinct log index failed: %v", err)
	}
}

func TestSwapEventStore_Insert_Invalid(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.SwapEvent{Pool: "0xpool"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing transaction, got %v", err)
	}
}

func TestSwapEventStore_InsertBulk_IntraBatchDuplicate(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	events := []*domain.SwapEvent{
		testEvent("0xtx1", 100, 0, 1),
		testEvent("0xtx1", 100, 0, 1),
	}
	if err := store.InsertBulk(ctx, events); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch should be visible.
	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty store after failed bulk insert, got %d events", len(all))
	}
}

func TestSwapEventStore_GetByBlockRange_CanonicalOrder(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	events := []*domain.SwapEvent{
		testEvent("0xtx3", 102, 0, 0),
		testEvent("0xtx2", 101, 1, 5),
		testEvent("0xtx2b", 101, 1, 2),
		testEvent("0xtx1", 101, 0, 9),
		testEvent("0xtx0", 100, 0, 0),
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByBlockRange(ctx, 100, 101)
	if err != nil {
		t.Fatalf("GetByBlockRange failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 events in range, got %d", len(got))
	}

	wantOrder := []string{"0xtx0", "0xtx1", "0xtx2b", "0xtx2"}
	for i, want := range wantOrder {
		if got[i].TransactionID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, got[i].TransactionID)
		}
	}
}

func TestSwapEventStore_CopySemantics(t *testing.T) {
	store := NewSwapEventStore()
	ctx := context.Background()

	e := testEvent("0xtx1", 100, 0, 0)
	if err := store.Insert(ctx, e); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	e.Amount0.SetInt64(999)

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if all[0].Amount0.Int64() != 100 {
		t.Errorf("stored event mutated through caller pointer: Amount0 = %s", all[0].Amount0)
	}
}
