package storage

import (
	"context"
	"log"

	"dex-market-indexer/internal/domain"
)

// SnapshotExporter decorates an EntityStore so every committed batch
// also forwards its interval rows to an analytical sink. The sink is
// best-effort: an export failure is logged and the commit stands, since
// the entity store is the source of truth and snapshots can be rebuilt.
type SnapshotExporter struct {
	EntityStore
	sink   IntervalSnapshotSink
	logger *log.Logger
}

// NewSnapshotExporter wraps the store with interval export to sink.
func NewSnapshotExporter(store EntityStore, sink IntervalSnapshotSink, logger *log.Logger) *SnapshotExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &SnapshotExporter{EntityStore: store, sink: sink, logger: logger}
}

// ApplyBatch commits the batch, then exports its interval rows.
func (s *SnapshotExporter) ApplyBatch(ctx context.Context, b *Batch) error {
	if err := s.EntityStore.ApplyBatch(ctx, b); err != nil {
		return err
	}
	s.export(ctx, b)
	return nil
}

func (s *SnapshotExporter) export(ctx context.Context, b *Batch) {
	if len(b.PoolDays) > 0 {
		rows := make([]*domain.PoolDayData, 0, len(b.PoolDays))
		for _, d := range b.PoolDays {
			rows = append(rows, d)
		}
		if err := s.sink.InsertPoolDays(ctx, rows); err != nil {
			s.logger.Printf("[storage] pool day snapshot export failed: %v", err)
		}
	}
	if len(b.PoolHours) > 0 {
		rows := make([]*domain.PoolHourData, 0, len(b.PoolHours))
		for _, d := range b.PoolHours {
			rows = append(rows, d)
		}
		if err := s.sink.InsertPoolHours(ctx, rows); err != nil {
			s.logger.Printf("[storage] pool hour snapshot export failed: %v", err)
		}
	}
	if len(b.TokenDays) > 0 {
		rows := make([]*domain.TokenDayData, 0, len(b.TokenDays))
		for _, d := range b.TokenDays {
			rows = append(rows, d)
		}
		if err := s.sink.InsertTokenDays(ctx, rows); err != nil {
			s.logger.Printf("[storage] token day snapshot export failed: %v", err)
		}
	}
	if len(b.TokenHours) > 0 {
		rows := make([]*domain.TokenHourData, 0, len(b.TokenHours))
		for _, d := range b.TokenHours {
			rows = append(rows, d)
		}
		if err := s.sink.InsertTokenHours(ctx, rows); err != nil {
			s.logger.Printf("[storage] token hour snapshot export failed: %v", err)
		}
	}
}
