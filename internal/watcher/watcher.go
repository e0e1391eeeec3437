// Package watcher ingests text documents dropped into a watched directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/medrag-labs/medragd/internal/pipeline"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// settleDelay is how long a file must stay quiet after its last write event
// before it is ingested, so partially copied files are not picked up.
const settleDelay = 500 * time.Millisecond

// Watcher watches a drop directory and ingests every .txt file created or
// rewritten in it. The document id is the file name without extension, so
// re-dropping a file re-ingests it under the same id.
type Watcher struct {
	dir      string
	pipeline *pipeline.Service
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	mu       sync.Mutex
	pending  map[string]*time.Timer
	stopped  bool
	stop     chan struct{}
	inflight sync.WaitGroup
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, p *pipeline.Service, logger *zap.Logger) (*Watcher, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		pipeline: p,
		watcher:  fw,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine. Ingestion errors are
// logged, never fatal: a bad file must not take the watcher down.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("watching document directory", zap.String("dir", w.dir))
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// schedule (re)arms the settle timer for path. The fired timer re-checks the
// stopped flag under the lock before ingesting, so a timer armed just before
// Stop can never ingest after Stop has returned.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.inflight.Add(1)
		w.mu.Unlock()

		defer w.inflight.Done()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("reading dropped document", zap.String("path", path), zap.Error(err))
		return
	}

	name := filepath.Base(path)
	documentID := strings.TrimSuffix(name, filepath.Ext(name))

	stored, err := w.pipeline.Ingest(ctx, documentID, string(content), "")
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyDocument) {
			w.logger.Warn("skipping empty dropped document", zap.String("path", path))
			return
		}
		w.logger.Error("ingesting dropped document", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("dropped document ingested",
		zap.String("document_id", documentID),
		zap.Int("chunks", stored),
	)
}

// Stop cancels pending settle timers, waits for any in-flight ingestion and
// releases the watcher's resources. After Stop returns no further documents
// are ingested, so the caller may safely snapshot the index. Stop is
// idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stop)
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.inflight.Wait()
	return w.watcher.Close()
}
