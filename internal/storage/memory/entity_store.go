package memory

import (
	"context"
	"sync"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// EntityStore is an in-memory implementation of storage.EntityStore.
// Every read and write goes through Clone, so callers can never mutate
// stored state through a returned pointer.
type EntityStore struct {
	mu sync.RWMutex

	bundle  *domain.Bundle
	factory map[string]*domain.Factory
	tokens  map[string]*domain.Token
	pools   map[string]*domain.Pool
	swaps   map[string]*domain.Swap

	globalDays map[string]*domain.GlobalDayData
	poolDays   map[string]*domain.PoolDayData
	poolHours  map[string]*domain.PoolHourData
	tokenDays  map[string]*domain.TokenDayData
	tokenHours map[string]*domain.TokenHourData
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{
		factory:    make(map[string]*domain.Factory),
		tokens:     make(map[string]*domain.Token),
		pools:      make(map[string]*domain.Pool),
		swaps:      make(map[string]*domain.Swap),
		globalDays: make(map[string]*domain.GlobalDayData),
		poolDays:   make(map[string]*domain.PoolDayData),
		poolHours:  make(map[string]*domain.PoolHourData),
		tokenDays:  make(map[string]*domain.TokenDayData),
		tokenHours: make(map[string]*domain.TokenHourData),
	}
}

// GetBundle retrieves the singleton price bundle.
func (s *EntityStore) GetBundle(_ context.Context) (*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.bundle == nil {
		return nil, storage.ErrNotFound
	}
	return s.bundle.Clone(), nil
}

// GetFactory retrieves the factory row by address.
func (s *EntityStore) GetFactory(_ context.Context, id string) (*domain.Factory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.factory[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return f.Clone(), nil
}

// GetToken retrieves a token by address.
func (s *EntityStore) GetToken(_ context.Context, id string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

// GetPool retrieves a pool by address.
func (s *EntityStore) GetPool(_ context.Context, id string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// GetSwap retrieves a processed swap record.
func (s *EntityStore) GetSwap(_ context.Context, id string) (*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sw, ok := s.swaps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return sw.Clone(), nil
}

// GetGlobalDay retrieves a global day bucket.
func (s *EntityStore) GetGlobalDay(_ context.Context, id string) (*domain.GlobalDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.globalDays[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// GetPoolDay retrieves a pool day bucket.
func (s *EntityStore) GetPoolDay(_ context.Context, id string) (*domain.PoolDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.poolDays[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// GetPoolHour retrieves a pool hour bucket.
func (s *EntityStore) GetPoolHour(_ context.Context, id string) (*domain.PoolHourData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.poolHours[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// GetTokenDay retrieves a token day bucket.
func (s *EntityStore) GetTokenDay(_ context.Context, id string) (*domain.TokenDayData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.tokenDays[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// GetTokenHour retrieves a token hour bucket.
func (s *EntityStore) GetTokenHour(_ context.Context, id string) (*domain.TokenHourData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.tokenHours[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d.Clone(), nil
}

// ApplyBatch upserts every record in the batch under one lock, so a
// concurrent reader sees either none of the batch or all of it.
func (s *EntityStore) ApplyBatch(_ context.Context, b *storage.Batch) error {
	if b == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b.Bundle != nil {
		s.bundle = b.Bundle.Clone()
	}
	if b.Factory != nil {
		s.factory[b.Factory.ID] = b.Factory.Clone()
	}
	for id, t := range b.Tokens {
		s.tokens[id] = t.Clone()
	}
	for id, p := range b.Pools {
		s.pools[id] = p.Clone()
	}
	for id, sw := range b.Swaps {
		s.swaps[id] = sw.Clone()
	}
	for id, d := range b.GlobalDays {
		s.globalDays[id] = d.Clone()
	}
	for id, d := range b.PoolDays {
		s.poolDays[id] = d.Clone()
	}
	for id, d := range b.PoolHours {
		s.poolHours[id] = d.Clone()
	}
	for id, d := range b.TokenDays {
		s.tokenDays[id] = d.Clone()
	}
	for id, d := range b.TokenHours {
		s.tokenHours[id] = d.Clone()
	}
	return nil
}

var _ storage.EntityStore = (*EntityStore)(nil)
