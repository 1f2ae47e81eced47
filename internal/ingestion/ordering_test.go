package ingestion

import (
	"errors"
	"testing"

	"dex-market-indexer/internal/domain"
)

func orderedEvent(block uint64, txIndex, logIndex int) *domain.SwapEvent {
	return &domain.SwapEvent{
		Pool:          "0xpool",
		TransactionID: "0xtx",
		BlockNumber:   block,
		TxIndex:       txIndex,
		LogIndex:      logIndex,
	}
}

func TestSortEvents(t *testing.T) {
	events := []*domain.SwapEvent{
		orderedEvent(102, 0, 0),
		orderedEvent(100, 2, 1),
		orderedEvent(100, 0, 5),
		orderedEvent(101, 1, 0),
		orderedEvent(100, 2, 0),
	}

	SortEvents(events)

	want := []struct {
		block    uint64
		txIndex  int
		logIndex int
	}{
		{100, 0, 5},
		{100, 2, 0},
		{100, 2, 1},
		{101, 1, 0},
		{102, 0, 0},
	}
	for i, w := range want {
		e := events[i]
		if e.BlockNumber != w.block || e.TxIndex != w.txIndex || e.LogIndex != w.logIndex {
			t.Errorf("position %d: expected (%d,%d,%d), got (%d,%d,%d)",
				i, w.block, w.txIndex, w.logIndex, e.BlockNumber, e.TxIndex, e.LogIndex)
		}
	}
}

func TestValidateOrdering(t *testing.T) {
	ordered := []*domain.SwapEvent{
		orderedEvent(100, 0, 0),
		orderedEvent(100, 0, 4),
		orderedEvent(101, 0, 0),
	}
	if err := ValidateOrdering(ordered); err != nil {
		t.Errorf("expected ordered events to validate, got %v", err)
	}

	unordered := []*domain.SwapEvent{
		orderedEvent(101, 0, 0),
		orderedEvent(100, 0, 0),
	}
	if err := ValidateOrdering(unordered); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}

	// Equal keys are also invalid: ordering must be strict.
	duplicated := []*domain.SwapEvent{
		orderedEvent(100, 0, 0),
		orderedEvent(100, 0, 0),
	}
	if err := ValidateOrdering(duplicated); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for equal keys, got %v", err)
	}

	if err := ValidateOrdering(nil); err != nil {
		t.Errorf("expected empty slice to validate, got %v", err)
	}
}
