package processor

import (
	"context"

	"dex-market-indexer/internal/domain"
	"dex-market-indexer/internal/storage"
)

// overlay resolves entities batch-first, store-second, so pricing and
// bucket updates made earlier in the same uncommitted swap are visible
// to later steps. It backs both the pricing lookup and the interval
// bucket source.
type overlay struct {
	store storage.EntityStore
	batch *storage.Batch
}

func (o *overlay) Pool(ctx context.Context, id string) (*domain.Pool, error) {
	if p, ok := o.batch.Pools[id]; ok {
		return p, nil
	}
	return o.store.GetPool(ctx, id)
}

func (o *overlay) Token(ctx context.Context, id string) (*domain.Token, error) {
	if t, ok := o.batch.Tokens[id]; ok {
		return t, nil
	}
	return o.store.GetToken(ctx, id)
}

func (o *overlay) GlobalDay(ctx context.Context, id string) (*domain.GlobalDayData, error) {
	if d, ok := o.batch.GlobalDays[id]; ok {
		return d, nil
	}
	return o.store.GetGlobalDay(ctx, id)
}

func (o *overlay) PoolDay(ctx context.Context, id string) (*domain.PoolDayData, error) {
	if d, ok := o.batch.PoolDays[id]; ok {
		return d, nil
	}
	return o.store.GetPoolDay(ctx, id)
}

func (o *overlay) PoolHour(ctx context.Context, id string) (*domain.PoolHourData, error) {
	if d, ok := o.batch.PoolHours[id]; ok {
		return d, nil
	}
	return o.store.GetPoolHour(ctx, id)
}

func (o *overlay) TokenDay(ctx context.Context, id string) (*domain.TokenDayData, error) {
	if d, ok := o.batch.TokenDays[id]; ok {
		return d, nil
	}
	return o.store.GetTokenDay(ctx, id)
}

func (o *overlay) TokenHour(ctx context.Context, id string) (*domain.TokenHourData, error) {
	if d, ok := o.batch.TokenHours[id]; ok {
		return d, nil
	}
	return o.store.GetTokenHour(ctx, id)
}
