package storage

import "dex-market-indexer/internal/domain"

// Batch collects every entity write produced while processing one swap.
// Maps are keyed by entity ID; the processor may overwrite a slot
// several times during one computation, last write wins.
type Batch struct {
	Bundle  *domain.Bundle
	Factory *domain.Factory

	Tokens map[string]*domain.Token
	Pools  map[string]*domain.Pool
	Swaps  map[string]*domain.Swap

	GlobalDays map[string]*domain.GlobalDayData
	PoolDays   map[string]*domain.PoolDayData
	PoolHours  map[string]*domain.PoolHourData
	TokenDays  map[string]*domain.TokenDayData
	TokenHours map[string]*domain.TokenHourData
}

// NewBatch returns an empty batch with all maps allocated.
func NewBatch() *Batch {
	return &Batch{
		Tokens:     make(map[string]*domain.Token),
		Pools:      make(map[string]*domain.Pool),
		Swaps:      make(map[string]*domain.Swap),
		GlobalDays: make(map[string]*domain.GlobalDayData),
		PoolDays:   make(map[string]*domain.PoolDayData),
		PoolHours:  make(map[string]*domain.PoolHourData),
		TokenDays:  make(map[string]*domain.TokenDayData),
		TokenHours: make(map[string]*domain.TokenHourData),
	}
}

// Empty reports whether the batch contains no writes.
func (b *Batch) Empty() bool {
	return b.Bundle == nil && b.Factory == nil &&
		len(b.Tokens) == 0 && len(b.Pools) == 0 && len(b.Swaps) == 0 &&
		len(b.GlobalDays) == 0 && len(b.PoolDays) == 0 && len(b.PoolHours) == 0 &&
		len(b.TokenDays) == 0 && len(b.TokenHours) == 0
}

// Size returns the number of records the batch will write.
func (b *Batch) Size() int {
	n := len(b.Tokens) + len(b.Pools) + len(b.Swaps) +
		len(b.GlobalDays) + len(b.PoolDays) + len(b.PoolHours) +
		len(b.TokenDays) + len(b.TokenHours)
	if b.Bundle != nil {
		n++
	}
	if b.Factory != nil {
		n++
	}
	return n
}
