// Package replay rebuilds aggregate state from the durable event log
// and checks it against the live stores. Because the processor is
// deterministic, replaying the same events into a fresh store must
// reproduce the same factory, bundle, pool, and token rows; any
// divergence means state was mutated outside the processor.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/ingestion"
	"dex-market-indexer/internal/processor"
	"dex-market-indexer/internal/storage"
	"dex-market-indexer/internal/storage/memory"
)

// Runner replays the event log through a fresh processor.
type Runner struct {
	events storage.SwapEventStore
	cfg    *config.Config
	logger *log.Logger
}

// NewRunner creates a replay runner over the given event log.
func NewRunner(events storage.SwapEventStore, cfg *config.Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{events: events, cfg: cfg, logger: logger}
}

// Seed is the pre-swap state replay starts from: the same token and
// pool rows the live run was bootstrapped with.
type Seed func(ctx context.Context, store storage.EntityStore) error

// Run replays every stored event in canonical order into a fresh
// in-memory store and returns that store. Deny-listed pools are
// skipped the same way the live runner skips them.
func (r *Runner) Run(ctx context.Context, seed Seed) (storage.EntityStore, error) {
	store := memory.NewEntityStore()
	if seed != nil {
		if err := seed(ctx, store); err != nil {
			return nil, fmt.Errorf("seed replay store: %w", err)
		}
	}

	events, err := r.events.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load event log: %w", err)
	}
	ingestion.SortEvents(events)
	if err := ingestion.ValidateOrdering(events); err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}

	proc := processor.New(store, r.cfg)
	replayed, skipped := 0, 0
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch err := proc.ProcessSwap(ctx, e); {
		case err == nil:
			replayed++
		case isSkippable(err):
			skipped++
		default:
			return nil, fmt.Errorf("replay event %s#%d: %w", e.TransactionID, e.LogIndex, err)
		}
	}

	r.logger.Printf("[replay] %d events replayed, %d skipped", replayed, skipped)
	return store, nil
}

// Verify replays the log and compares the result against the live
// store. The returned divergences are empty when the live state is
// exactly reproducible from the log.
func (r *Runner) Verify(ctx context.Context, live storage.EntityStore, seed Seed, scope Scope) ([]Divergence, error) {
	rebuilt, err := r.Run(ctx, seed)
	if err != nil {
		return nil, err
	}
	return CompareStores(ctx, live, rebuilt, r.cfg.FactoryAddress, scope)
}

func isSkippable(err error) bool {
	return errors.Is(err, processor.ErrPoolDenied)
}
