// Package main runs the swap indexer: it seeds the entity graph,
// ingests swap events from a file or a live WebSocket subscription, and
// commits one all-or-nothing batch per swap.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dex-market-indexer/internal/config"
	"dex-market-indexer/internal/ingestion"
	"dex-market-indexer/internal/observability"
	"dex-market-indexer/internal/processor"
	"dex-market-indexer/internal/storage"
	chstore "dex-market-indexer/internal/storage/clickhouse"
	"dex-market-indexer/internal/storage/memory"
	"dex-market-indexer/internal/storage/migrations"
	pgstore "dex-market-indexer/internal/storage/postgres"
)

func main() {
	mode := flag.String("mode", "backfill", "Ingestion mode: backfill or live")
	configPath := flag.String("config", "", "Pricing config JSON (defaults to Ethereum mainnet)")
	eventsPath := flag.String("events", "", "Swap event fixture file for backfill mode")
	wsEndpoint := flag.String("ws-endpoint", "", "EVM node WebSocket endpoint for live mode")
	seedPath := flag.String("seed", "", "Entity seed file applied before ingestion")
	fromBlock := flag.Uint64("from-block", 0, "Start block for backfill")
	toBlock := flag.Uint64("to-block", math.MaxUint64, "End block for backfill (inclusive)")
	pools := flag.String("pools", "", "Comma-separated pool addresses for the live subscription")
	fetchOrigin := flag.Bool("fetch-origin", false, "Resolve each swap's transaction sender over RPC")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for interval snapshots (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	switch *mode {
	case "backfill":
		err = runBackfill(ctx, logger, cfg, *eventsPath, *seedPath, *fromBlock, *toBlock,
			*postgresDSN, *clickhouseDSN, *useMemory)
	case "live":
		err = runLive(ctx, logger, cfg, *wsEndpoint, *seedPath, *pools, *fetchOrigin,
			*postgresDSN, *clickhouseDSN, *useMemory)
	default:
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Mainnet(), nil
	}
	return config.Load(path)
}

// createStores builds the entity store and event log, running Postgres
// migrations and wrapping the store with ClickHouse snapshot export
// when DSNs are given.
func createStores(ctx context.Context, logger *log.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (storage.EntityStore, storage.SwapEventStore, func(), error) {
	var entityStore storage.EntityStore
	var eventStore storage.SwapEventStore
	cleanup := func() {}

	if useMemory {
		entityStore = memory.NewEntityStore()
		eventStore = memory.NewSwapEventStore()
	} else {
		if postgresDSN == "" {
			return nil, nil, nil, fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		entityStore = pgstore.NewEntityStore(pool)
		eventStore = pgstore.NewSwapEventStore(pool)
		cleanup = pool.Close
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		entityStore = storage.NewSnapshotExporter(entityStore, chstore.NewIntervalSnapshotStore(conn), logger)
		prev := cleanup
		cleanup = func() {
			conn.Close()
			prev()
		}
	}

	return entityStore, eventStore, cleanup, nil
}

func seedIfRequested(ctx context.Context, logger *log.Logger, store storage.EntityStore, seedPath string) error {
	if seedPath == "" {
		return nil
	}
	if err := ingestion.SeedEntities(ctx, store, seedPath); err != nil {
		return fmt.Errorf("seed entities: %w", err)
	}
	logger.Printf("Seeded entity graph from %s", seedPath)
	return nil
}

// runBackfill ingests a block range from the event fixture file.
func runBackfill(ctx context.Context, logger *log.Logger, cfg *config.Config,
	eventsPath, seedPath string, fromBlock, toBlock uint64,
	postgresDSN, clickhouseDSN string, useMemory bool) error {

	if eventsPath == "" {
		return fmt.Errorf("--events is required for backfill mode")
	}

	entityStore, eventStore, cleanup, err := createStores(ctx, logger, postgresDSN, clickhouseDSN, useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := seedIfRequested(ctx, logger, entityStore, seedPath); err != nil {
		return err
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:     ingestion.NewFileSource(eventsPath),
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
		Logger:     logger,
	})

	logger.Printf("Backfilling blocks %d-%d from %s", fromBlock, toBlock, eventsPath)
	res, err := runner.Run(ctx, fromBlock, toBlock)
	if err != nil {
		return err
	}
	logger.Printf("Backfill complete: %d ingested, %d processed, %d skipped",
		res.Ingested, res.Processed, res.Skipped)
	return nil
}

// runLive streams swap logs from the node until interrupted.
func runLive(ctx context.Context, logger *log.Logger, cfg *config.Config,
	wsEndpoint, seedPath, pools string, fetchOrigin bool,
	postgresDSN, clickhouseDSN string, useMemory bool) error {

	if wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required for live mode")
	}

	entityStore, eventStore, cleanup, err := createStores(ctx, logger, postgresDSN, clickhouseDSN, useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := seedIfRequested(ctx, logger, entityStore, seedPath); err != nil {
		return err
	}

	wsConfig := ingestion.DefaultWSSourceConfig()
	wsConfig.Pools = splitAddresses(pools)
	wsConfig.FetchOrigin = fetchOrigin

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Stream:     ingestion.NewWSLogSource(wsEndpoint, &wsConfig, logger),
		EventStore: eventStore,
		Processor:  processor.New(entityStore, cfg),
		Logger:     logger,
	})

	logger.Printf("Streaming swap logs from %s", wsEndpoint)
	res, err := runner.RunStream(ctx)
	logger.Printf("Stream finished: %d ingested, %d processed, %d skipped",
		res.Ingested, res.Processed, res.Skipped)
	return err
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if addr := strings.ToLower(strings.TrimSpace(part)); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
