package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// SwapEventStore is an in-memory implementation of storage.SwapEventStore.
type SwapEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapEvent // keyed by (transaction, log index)
}

// NewSwapEventStore creates a new in-memory swap event store.
func NewSwapEventStore() *SwapEventStore {
	return &SwapEventStore{
		data: make(map[string]*domain.SwapEvent),
	}
}

// eventKey generates a unique key for a raw event.
func eventKey(txID string, logIndex int) string {
	return fmt.Sprintf("%s|%d", txID, logIndex)
}

// Insert adds a raw event. Returns ErrDuplicateKey if exists.
func (s *SwapEventStore) Insert(_ context.Context, e *domain.SwapEvent) error {
	if e == nil || e.TransactionID == "" || e.Pool == "" {
		return storage.ErrInvalidInput
	}

	key := eventKey(e.TransactionID, e.LogIndex)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = e.Clone()
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *SwapEventStore) InsertBulk(_ context.Context, events []*domain.SwapEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.TransactionID == "" || e.Pool == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(e.TransactionID, e.LogIndex)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, e := range events {
		s.data[eventKey(e.TransactionID, e.LogIndex)] = e.Clone()
	}

	return nil
}

// GetByBlockRange retrieves events with block number in [start, end]
// (inclusive), in canonical order.
func (s *SwapEventStore) GetByBlockRange(_ context.Context, start, end uint64) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapEvent
	for _, e := range s.data {
		if e.BlockNumber >= start && e.BlockNumber <= end {
			result = append(result, e.Clone())
		}
	}

	sortCanonical(result)
	return result, nil
}

// GetAll retrieves every stored event in canonical order.
func (s *SwapEventStore) GetAll(_ context.Context) ([]*domain.SwapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SwapEvent, 0, len(s.data))
	for _, e := range s.data {
		result = append(result, e.Clone())
	}

	sortCanonical(result)
	return result, nil
}

// sortCanonical orders events by block number, then transaction index,
// then log index, which is the only order replay accepts.
func sortCanonical(events []*domain.SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		if events[i].TxIndex != events[j].TxIndex {
			return events[i].TxIndex < events[j].TxIndex
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

var _ storage.SwapEventStore = (*SwapEventStore)(nil)
