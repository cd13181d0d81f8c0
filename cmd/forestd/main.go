// Copyright 2025 Certen Protocol
//
// forestd is a thin demo server exercising a single forestlog node: it
// wires the blob store, the in-memory forest (persisted via an optional
// tree-root index), the proof package, metrics and the checkpoint audit
// trail behind a handful of HTTP endpoints. It is not part of the forest
// engine itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/google/uuid"

	"github.com/certen/forestlog/pkg/blobstore"
	"github.com/certen/forestlog/pkg/checkpoint"
	"github.com/certen/forestlog/pkg/config"
	"github.com/certen/forestlog/pkg/forest"
	"github.com/certen/forestlog/pkg/metrics"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("forestd: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if path := os.Getenv("FORESTLOG_CONFIG_FILE"); path != "" {
		if err := applyFileOverlay(cfg, path); err != nil {
			return fmt.Errorf("apply config file overlay: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, indexDB, err := openBlobStore(cfg)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	f, err := forest.LoadIndex(ctx, indexDB, store)
	cancel()
	if err != nil {
		return fmt.Errorf("load forest index: %w", err)
	}

	cpCtx, cpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	cp, err := checkpoint.Open(cpCtx, cfg)
	cpCancel()
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer cp.Close()

	m := metrics.New()

	srv := &server{
		cfg:        cfg,
		indexDB:    indexDB,
		checkpoint: cp,
		metrics:    m,
		forest:     f,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/add", srv.handleAdd)
	mux.HandleFunc("/inclusion/", srv.handleInclusion)
	mux.HandleFunc("/exclusion/", srv.handleExclusion)
	mux.HandleFunc("/checkpoint/latest", srv.handleLatestCheckpoint)
	mux.HandleFunc("/healthz", srv.handleHealth)

	apiSrv := &http.Server{Addr: cfg.ListenAddr, Handler: withRequestID(mux)}
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler()}
	healthSrv := &http.Server{Addr: cfg.HealthAddr, Handler: http.HandlerFunc(srv.handleHealth)}

	errCh := make(chan error, 3)
	go func() { errCh <- listenAndServe("api", apiSrv) }()
	go func() { errCh <- listenAndServe("metrics", metricsSrv) }()
	go func() { errCh <- listenAndServe("health", healthSrv) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("forestd: received %s, shutting down", sig)
	case err := <-errCh:
		log.Printf("forestd: listener error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	for name, s := range map[string]*http.Server{"api": apiSrv, "metrics": metricsSrv, "health": healthSrv} {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Printf("forestd: %s shutdown: %v", name, err)
		}
	}
	return indexDB.Close()
}

// applyFileOverlay layers an optional NodeFileConfig YAML file (selected via
// FORESTLOG_CONFIG_FILE) on top of the env-var Config, for deployments that
// prefer checking storage/checkpoint/metrics settings into a file rather
// than passing them all as environment variables.
func applyFileOverlay(cfg *config.Config, path string) error {
	file, err := config.LoadNodeFileConfig(path)
	if err != nil {
		return err
	}
	if err := file.Validate(); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	cfg.BlobBackend = file.Storage.Backend
	cfg.DataDir = file.Storage.DataDir
	cfg.LevelDBPath = file.Storage.LevelDBPath

	cfg.CheckpointEnabled = file.Checkpoint.Enabled
	if file.Checkpoint.Enabled {
		cfg.DatabaseURL = file.Checkpoint.DatabaseURL
		cfg.DBMaxOpenConns = file.Checkpoint.MaxOpenConns
		cfg.DBMaxIdleConns = file.Checkpoint.MaxIdleConns
		cfg.DBConnMaxIdleTime = file.Checkpoint.ConnMaxIdleTime.Duration()
		cfg.DBConnMaxLifetime = file.Checkpoint.ConnMaxLifetime.Duration()
	}
	if file.Metrics.Enabled && file.Metrics.ListenAddr != "" {
		cfg.MetricsAddr = file.Metrics.ListenAddr
	}
	return nil
}

// withRequestID stamps every request with a correlation ID, so a log line
// for one request can be told apart from its neighbors in a busy node.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func listenAndServe(name string, s *http.Server) error {
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s listener: %w", name, err)
	}
	return nil
}

// openBlobStore builds the blob.Store selected by cfg.BlobBackend, plus the
// dbm.DB used for the forest's tree-root index. For the "leveldb" backend
// the same database serves both roles; "file" keeps the index in a small
// dedicated LevelDB directory alongside the blob directory so a restart can
// still recover the forest shape without re-deriving it from every blob on
// disk; "mem" keeps the index in an in-memory database that does not
// survive a restart.
func openBlobStore(cfg *config.Config) (blobstore.Store, dbm.DB, error) {
	switch cfg.BlobBackend {
	case "mem":
		return blobstore.NewMem(), dbm.NewMemDB(), nil
	case "file":
		fs, err := blobstore.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		db, err := dbm.NewGoLevelDB("forestlog-index", cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open index db: %w", err)
		}
		return fs, db, nil
	case "leveldb":
		db, err := dbm.NewGoLevelDB("forestlog", cfg.LevelDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open leveldb: %w", err)
		}
		return blobstore.NewKVStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// server holds the live forest under a mutex: forest.Forest is an
// immutable value, so a mutation swaps this pointer. handleAdd holds the
// mutex across Forest.Add, including its blob-store writes, so concurrent
// adds are serialized.
type server struct {
	cfg        *config.Config
	indexDB    dbm.DB
	checkpoint *checkpoint.Store
	metrics    *metrics.Metrics

	mu     sync.Mutex
	forest *forest.Forest
}

func (s *server) currentForest() *forest.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}
