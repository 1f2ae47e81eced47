package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"dex-market-indexer/internal/domain"
)

// FileSource reads swap events from a JSON fixture file. Integer
// amounts are strings in the file because int256 values do not fit
// JSON numbers.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// eventFile is the on-disk fixture shape.
type eventFile struct {
	Events []eventRecord `json:"events"`
}

type eventRecord struct {
	Pool          string `json:"pool"`
	TransactionID string `json:"transaction_id"`
	BlockNumber   uint64 `json:"block_number"`
	BlockTime     int64  `json:"block_time"`
	TxIndex       int    `json:"tx_index"`
	LogIndex      int    `json:"log_index"`
	Sender        string `json:"sender"`
	Origin        string `json:"origin"`
	Recipient     string `json:"recipient"`
	Amount0       string `json:"amount0"`
	Amount1       string `json:"amount1"`
	SqrtPriceX96  string `json:"sqrt_price_x96"`
	Liquidity     string `json:"liquidity"`
	Tick          int32  `json:"tick"`
}

// Fetch loads every event in the file with block number inside
// [fromBlock, toBlock]. Pass 0 and MaxUint64 for the whole file.
func (s *FileSource) Fetch(_ context.Context, fromBlock, toBlock uint64) ([]*domain.SwapEvent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}

	var file eventFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse events file %s: %w", s.path, err)
	}

	events := make([]*domain.SwapEvent, 0, len(file.Events))
	for i, rec := range file.Events {
		if rec.BlockNumber < fromBlock || rec.BlockNumber > toBlock {
			continue
		}
		e, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("event %d in %s: %w", i, s.path, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *eventRecord) toDomain() (*domain.SwapEvent, error) {
	amount0, err := parseBigInt(r.Amount0)
	if err != nil {
		return nil, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := parseBigInt(r.Amount1)
	if err != nil {
		return nil, fmt.Errorf("amount1: %w", err)
	}
	sqrtPrice, err := parseBigInt(r.SqrtPriceX96)
	if err != nil {
		return nil, fmt.Errorf("sqrt_price_x96: %w", err)
	}
	liquidity, err := parseBigInt(r.Liquidity)
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}

	return &domain.SwapEvent{
		Pool:          strings.ToLower(r.Pool),
		TransactionID: strings.ToLower(r.TransactionID),
		BlockNumber:   r.BlockNumber,
		BlockTime:     r.BlockTime,
		TxIndex:       r.TxIndex,
		LogIndex:      r.LogIndex,
		Sender:        strings.ToLower(r.Sender),
		Origin:        strings.ToLower(r.Origin),
		Recipient:     strings.ToLower(r.Recipient),
		Amount0:       amount0,
		Amount1:       amount1,
		SqrtPriceX96:  sqrtPrice,
		Liquidity:     liquidity,
		Tick:          r.Tick,
	}, nil
}

// parseBigInt parses a decimal or 0x-prefixed hex integer string.
func parseBigInt(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

var _ EventSource = (*FileSource)(nil)
