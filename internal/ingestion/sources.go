// Package ingestion moves raw swap events from external sources into
// the event log and drives the processor over them in canonical order.
package ingestion

import (
	"context"

	"dex-market-indexer/internal/domain"
)

// EventSource provides raw swap events in bulk, e.g. from a fixture
// file or an archive dump. Events may arrive unordered; the runner
// enforces deterministic ordering before processing.
type EventSource interface {
	Fetch(ctx context.Context, fromBlock, toBlock uint64) ([]*domain.SwapEvent, error)
}

// StreamSource provides a live feed of swap events. The channel closes
// when the source shuts down or the context is cancelled.
type StreamSource interface {
	Subscribe(ctx context.Context) (<-chan *domain.SwapEvent, error)
}
