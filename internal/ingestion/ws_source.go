package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"dex-market-indexer/internal/domain"
)

// SwapTopic is the keccak hash of
// Swap(address,address,int256,int256,uint160,uint128,int24).
const SwapTopic = "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"

// WSSourceConfig configures the live log source.
type WSSourceConfig struct {
	// Pools limits the subscription to these pool addresses. Empty
	// subscribes to every swap log on the chain.
	Pools []string
	// FetchOrigin resolves each swap's transaction sender with an
	// extra eth_getTransactionByHash call.
	FetchOrigin bool
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// CallTimeout bounds individual JSON-RPC calls.
	CallTimeout time.Duration
}

// DefaultWSSourceConfig returns the default live source configuration.
func DefaultWSSourceConfig() WSSourceConfig {
	return WSSourceConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		CallTimeout:       10 * time.Second,
	}
}

// WSLogSource streams swap events from an EVM node over WebSocket,
// subscribing to swap logs and decoding the payload words directly.
//
// One goroutine owns the connection reads; notifications flow through
// an internal queue to a single decode worker, so emitted events keep
// their arrival order even when decoding needs extra RPC round trips.
type WSLogSource struct {
	endpoint string
	config   WSSourceConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	requestID atomic.Uint64

	// pending maps request ID to the channel waiting for its response.
	pending   map[uint64]chan rpcResponse
	pendingMu sync.Mutex

	// blockTimes caches block number to timestamp lookups.
	blockTimes map[uint64]int64

	raw chan wireLog
	out chan *domain.SwapEvent
}

// NewWSLogSource creates a live source for the given ws:// endpoint.
func NewWSLogSource(endpoint string, config *WSSourceConfig, logger *log.Logger) *WSLogSource {
	cfg := DefaultWSSourceConfig()
	if config != nil {
		c := *config
		if c.ReconnectDelay == 0 {
			c.ReconnectDelay = cfg.ReconnectDelay
		}
		if c.MaxReconnectDelay == 0 {
			c.MaxReconnectDelay = cfg.MaxReconnectDelay
		}
		if c.CallTimeout == 0 {
			c.CallTimeout = cfg.CallTimeout
		}
		cfg = c
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WSLogSource{
		endpoint:   endpoint,
		config:     cfg,
		logger:     logger,
		pending:    make(map[uint64]chan rpcResponse),
		blockTimes: make(map[uint64]int64),
		raw:        make(chan wireLog, 256),
		out:        make(chan *domain.SwapEvent, 256),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type logNotification struct {
	Subscription string  `json:"subscription"`
	Result       wireLog `json:"result"`
}

type wireLog struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      string   `json:"blockNumber"`
	TransactionHash  string   `json:"transactionHash"`
	TransactionIndex string   `json:"transactionIndex"`
	LogIndex         string   `json:"logIndex"`
	Removed          bool     `json:"removed"`
}

// Subscribe connects, starts the read and decode loops and subscribes
// to swap logs. The returned channel closes when the context ends.
func (s *WSLogSource) Subscribe(ctx context.Context) (<-chan *domain.SwapEvent, error) {
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	go s.readLoop(ctx)
	go s.decodeLoop(ctx)

	if err := s.subscribeLogs(ctx); err != nil {
		s.closeConn()
		return nil, err
	}
	return s.out, nil
}

func (s *WSLogSource) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	s.conn = conn
	return nil
}

func (s *WSLogSource) closeConn() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *WSLogSource) subscribeLogs(ctx context.Context) error {
	filter := map[string]interface{}{
		"topics": []interface{}{SwapTopic},
	}
	if len(s.config.Pools) > 0 {
		filter["address"] = s.config.Pools
	}

	res, err := s.call(ctx, "eth_subscribe", []interface{}{"logs", filter})
	if err != nil {
		return fmt.Errorf("eth_subscribe: %w", err)
	}
	var subID string
	if err := json.Unmarshal(res, &subID); err != nil {
		return fmt.Errorf("eth_subscribe response: %w", err)
	}
	s.logger.Printf("[ws-source] subscribed to swap logs, id %s", subID)
	return nil
}

// call sends one JSON-RPC request and waits for the read loop to
// deliver its response.
func (s *WSLogSource) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	id := s.requestID.Add(1)
	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}

	respCh := make(chan rpcResponse, 1)
	s.pendingMu.Lock()
	s.pending[id] = respCh
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	s.connMu.Lock()
	conn := s.conn
	var err error
	if conn != nil {
		conn.SetWriteDeadline(time.Now().Add(s.config.CallTimeout))
		err = conn.WriteJSON(req)
	} else {
		err = fmt.Errorf("not connected")
	}
	s.connMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.config.CallTimeout):
		return nil, fmt.Errorf("%s: timeout", method)
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: rpc error %d: %s", method, resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
}

// readLoop owns all connection reads, routing responses to pending
// calls and notifications to the decode queue. It reconnects with
// backoff on connection loss.
func (s *WSLogSource) readLoop(ctx context.Context) {
	defer close(s.raw)
	delay := s.config.ReconnectDelay

	for {
		if ctx.Err() != nil {
			s.closeConn()
			return
		}

		var resp rpcResponse
		if err := s.conn.ReadJSON(&resp); err != nil {
			if ctx.Err() != nil {
				s.closeConn()
				return
			}
			s.logger.Printf("[ws-source] read error: %v, reconnecting in %s", err, delay)
			select {
			case <-ctx.Done():
				s.closeConn()
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}
			if err := s.connect(ctx); err != nil {
				continue
			}
			// Resubscribe on a fresh connection. The response is
			// consumed here because call() would deadlock waiting on
			// this same loop.
			go func() {
				if err := s.subscribeLogs(ctx); err != nil {
					s.logger.Printf("[ws-source] resubscribe failed: %v", err)
					s.closeConn()
				}
			}()
			continue
		}
		delay = s.config.ReconnectDelay

		if resp.ID != 0 {
			s.pendingMu.Lock()
			ch, ok := s.pending[resp.ID]
			s.pendingMu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}

		if resp.Method != "eth_subscription" {
			continue
		}
		var note logNotification
		if err := json.Unmarshal(resp.Params, &note); err != nil {
			s.logger.Printf("[ws-source] bad notification: %v", err)
			continue
		}
		if note.Result.Removed {
			// Reorged-out log; nothing to emit.
			continue
		}
		select {
		case s.raw <- note.Result:
		case <-ctx.Done():
			s.closeConn()
			return
		}
	}
}

// decodeLoop turns queued logs into domain events in arrival order.
func (s *WSLogSource) decodeLoop(ctx context.Context) {
	defer close(s.out)
	for l := range s.raw {
		event, err := s.decodeLog(ctx, &l)
		if err != nil {
			s.logger.Printf("[ws-source] drop log %s: %v", l.TransactionHash, err)
			continue
		}
		select {
		case s.out <- event:
		case <-ctx.Done():
			return
		}
	}
}

// decodeLog turns a raw swap log into a domain event.
func (s *WSLogSource) decodeLog(ctx context.Context, l *wireLog) (*domain.SwapEvent, error) {
	if len(l.Topics) != 3 {
		return nil, fmt.Errorf("expected 3 topics, got %d", len(l.Topics))
	}
	sender, err := topicToAddress(l.Topics[1])
	if err != nil {
		return nil, fmt.Errorf("sender topic: %w", err)
	}
	recipient, err := topicToAddress(l.Topics[2])
	if err != nil {
		return nil, fmt.Errorf("recipient topic: %w", err)
	}

	words, err := splitDataWords(l.Data, swapDataWords)
	if err != nil {
		return nil, err
	}
	amount0, err := parseHexInt256(words[0])
	if err != nil {
		return nil, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := parseHexInt256(words[1])
	if err != nil {
		return nil, fmt.Errorf("amount1: %w", err)
	}
	sqrtPrice, err := parseHexWord(words[2])
	if err != nil {
		return nil, fmt.Errorf("sqrtPriceX96: %w", err)
	}
	liquidity, err := parseHexWord(words[3])
	if err != nil {
		return nil, fmt.Errorf("liquidity: %w", err)
	}
	tick, err := parseHexInt256(words[4])
	if err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}

	blockNumber, err := parseHexUint64(l.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("blockNumber: %w", err)
	}
	txIndex, err := parseHexUint64(l.TransactionIndex)
	if err != nil {
		return nil, fmt.Errorf("transactionIndex: %w", err)
	}
	logIndex, err := parseHexUint64(l.LogIndex)
	if err != nil {
		return nil, fmt.Errorf("logIndex: %w", err)
	}

	blockTime, err := s.blockTimestamp(ctx, blockNumber, l.BlockNumber)
	if err != nil {
		return nil, err
	}

	event := &domain.SwapEvent{
		Pool:          strings.ToLower(l.Address),
		TransactionID: strings.ToLower(l.TransactionHash),
		BlockNumber:   blockNumber,
		BlockTime:     blockTime,
		TxIndex:       int(txIndex),
		LogIndex:      int(logIndex),
		Sender:        sender,
		Recipient:     recipient,
		Amount0:       amount0,
		Amount1:       amount1,
		SqrtPriceX96:  sqrtPrice,
		Liquidity:     liquidity,
		Tick:          int32(tick.Int64()),
	}

	if s.config.FetchOrigin {
		origin, err := s.transactionOrigin(ctx, l.TransactionHash)
		if err != nil {
			return nil, err
		}
		event.Origin = origin
	}
	return event, nil
}

// blockTimestamp resolves a block's timestamp. Only the decode loop
// touches the cache, so it needs no lock.
func (s *WSLogSource) blockTimestamp(ctx context.Context, number uint64, numberHex string) (int64, error) {
	if ts, ok := s.blockTimes[number]; ok {
		return ts, nil
	}

	res, err := s.call(ctx, "eth_getBlockByNumber", []interface{}{numberHex, false})
	if err != nil {
		return 0, fmt.Errorf("block %d timestamp: %w", number, err)
	}
	var block struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(res, &block); err != nil {
		return 0, fmt.Errorf("block %d: %w", number, err)
	}
	ts, err := parseHexUint64(block.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("block %d timestamp: %w", number, err)
	}

	s.blockTimes[number] = int64(ts)
	return int64(ts), nil
}

// transactionOrigin resolves the externally-owned account that sent
// the transaction.
func (s *WSLogSource) transactionOrigin(ctx context.Context, txHash string) (string, error) {
	res, err := s.call(ctx, "eth_getTransactionByHash", []interface{}{txHash})
	if err != nil {
		return "", fmt.Errorf("origin of %s: %w", txHash, err)
	}
	var tx struct {
		From string `json:"from"`
	}
	if err := json.Unmarshal(res, &tx); err != nil {
		return "", fmt.Errorf("origin of %s: %w", txHash, err)
	}
	return strings.ToLower(tx.From), nil
}

var _ StreamSource = (*WSLogSource)(nil)
