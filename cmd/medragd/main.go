// Medragd is a retrieval-augmented document service: it ingests short text
// documents, embeds and indexes them, retrieves semantically similar chunks
// for a query and assembles a templated answer with cited sources.
//
// Configuration is loaded from ~/.config/medragd/config.yaml and MEDRAGD_*
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the server with defaults
//	medragd
//
//	# Configure via environment
//	MEDRAGD_SERVER_PORT=8080 MEDRAGD_WATCH_DIR=./documents medragd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/config"
	"github.com/medrag-labs/medragd/internal/embeddings"
	"github.com/medrag-labs/medragd/internal/index"
	"github.com/medrag-labs/medragd/internal/language"
	"github.com/medrag-labs/medragd/internal/logging"
	"github.com/medrag-labs/medragd/internal/pipeline"
	"github.com/medrag-labs/medragd/internal/server"
	"github.com/medrag-labs/medragd/internal/watcher"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/medragd/config.yaml)")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  medragd            Start the medragd daemon\n")
			fmt.Fprintf(os.Stderr, "  medragd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("medragd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run initializes all services and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logging.Sync(logger)

	cacheDir, err := config.ExpandPath(cfg.Embeddings.CacheDir)
	if err != nil {
		return fmt.Errorf("expanding cache dir: %w", err)
	}
	embedder, err := embeddings.NewFastEmbedProvider(embeddings.FastEmbedConfig{
		Model:       cfg.Embeddings.Model,
		CacheDir:    cacheDir,
		LoadTimeout: cfg.Embeddings.LoadTimeout,
	}, logger.Named("embeddings"))
	if err != nil {
		return fmt.Errorf("creating embedding provider: %w", err)
	}
	defer embedder.Close()

	idx := index.New()
	snapshotPath, err := config.ExpandPath(cfg.Index.SnapshotPath)
	if err != nil {
		return fmt.Errorf("expanding snapshot path: %w", err)
	}
	restoreIndex(idx, snapshotPath, logger)

	translator := language.NewHTTPTranslator(language.TranslatorConfig{
		BaseURL: cfg.Translation.BaseURL,
		Timeout: cfg.Translation.Timeout,
	}, logger.Named("translator"))

	pipe, err := pipeline.New(pipeline.Config{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		TopK:         cfg.Retrieval.TopK,
	}, embedder, idx, logger.Named("pipeline"))
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	var docWatcher *watcher.Watcher
	if cfg.Watch.Dir != "" {
		docWatcher, err = watcher.New(cfg.Watch.Dir, pipe, logger.Named("watcher"))
		if err != nil {
			return fmt.Errorf("creating document watcher: %w", err)
		}
		docWatcher.Start(ctx)
		defer docWatcher.Stop()
	}

	srv, err := server.New(pipe, translator, cfg.Server, cfg.Retrieval.TopK, version, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("medragd started",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Int("chunks_indexed", idx.Len()),
	)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	// The watcher must be fully stopped before the snapshot: a settle timer
	// armed just before the signal would otherwise ingest a document the
	// snapshot no longer captures.
	if docWatcher != nil {
		if err := docWatcher.Stop(); err != nil {
			logger.Warn("stopping document watcher", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}

	// Traffic has stopped; now is the only time the snapshot is written.
	if snapshotPath != "" {
		if err := idx.SaveFile(snapshotPath); err != nil {
			logger.Error("saving index snapshot", zap.String("path", snapshotPath), zap.Error(err))
		} else {
			logger.Info("index snapshot saved",
				zap.String("path", snapshotPath),
				zap.Int("chunks", idx.Len()),
			)
		}
	}

	return nil
}

// restoreIndex loads the snapshot if one exists. A corrupt or incompatible
// snapshot falls back to an empty index with a clear log: availability is
// preferred over durability at startup.
func restoreIndex(idx *index.Index, path string, logger *zap.Logger) {
	if path == "" {
		return
	}

	err := idx.LoadFile(path)
	switch {
	case err == nil:
		logger.Info("index snapshot restored",
			zap.String("path", path),
			zap.Int("chunks", idx.Len()),
			zap.Int("dimension", idx.Dimension()),
		)
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no index snapshot, starting empty", zap.String("path", path))
	case errors.Is(err, index.ErrIncompatibleFormat):
		logger.Error("index snapshot incompatible, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		idx.Clear()
	default:
		logger.Error("index snapshot restore failed, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		idx.Clear()
	}
}
