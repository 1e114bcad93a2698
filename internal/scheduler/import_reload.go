package scheduler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/smartmark/internal/ingest"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
	"github.com/MrSnakeDoc/smartmark/internal/metrics"
	"github.com/MrSnakeDoc/smartmark/internal/sources/homepage"
)

// Import entry outcomes, also used as metric labels.
const (
	OutcomeImported  = "imported"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

const defaultDebounce = 500 * time.Millisecond

// Ingester saves one bookmark; *ingest.Pipeline in production.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Result, error)
}

// ImportStatus describes the last import run.
type ImportStatus struct {
	LastRun    time.Time `json:"last_run"`
	Entries    int       `json:"entries"`
	Imported   int       `json:"imported"`
	Duplicates int       `json:"duplicates"`
	Rejected   int       `json:"rejected"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

type ImportOptions struct {
	File          string
	Owner         string
	Ingester      Ingester
	Logger        logger.Logger
	Metrics       *metrics.Metrics
	Interval      time.Duration
	Watch         bool          // re-import when the file changes
	Debounce      time.Duration // quiet period after a file change, default 500ms
	ManualTrigger chan struct{} // POST /reload
}

// ImportReloader feeds a Homepage bookmarks file through the ingestion
// pipeline for one owner. Entries already saved come back as duplicates,
// so re-running an import only adds what is new.
type ImportReloader struct {
	loader        *homepage.Loader
	ingester      Ingester
	owner         string
	logger        logger.Logger
	metrics       *metrics.Metrics
	interval      time.Duration
	watch         bool
	debounce      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}

	mu     sync.RWMutex
	status ImportStatus
}

// NewImportReloader creates a new import reloader
func NewImportReloader(opts ImportOptions) *ImportReloader {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 24 * time.Hour
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &ImportReloader{
		loader:        homepage.NewLoader(opts.File),
		ingester:      opts.Ingester,
		owner:         opts.Owner,
		logger:        opts.Logger.With(logger.String("component", "importer")),
		metrics:       opts.Metrics,
		interval:      opts.Interval,
		watch:         opts.Watch,
		debounce:      opts.Debounce,
		stopCh:        make(chan struct{}),
		manualTrigger: opts.ManualTrigger,
	}
}

// Run imports once, then again on every tick, manual trigger or file
// change, until ctx is done or Stop is called. A failed import is logged,
// never returned.
func (ir *ImportReloader) Run(ctx context.Context) error {
	var (
		events   <-chan fsnotify.Event
		errs     <-chan error
		debounce <-chan time.Time
	)
	if ir.watch {
		w, err := ir.newWatcher()
		if err != nil {
			ir.logger.Warn("file watch disabled", logger.Error(err))
		} else {
			defer func() { _ = w.Close() }()
			events, errs = w.Events, w.Errors
		}
	}

	// Load immediately on start
	if _, err := ir.Reload(ctx); err != nil {
		ir.logger.Warn("initial import failed", logger.Error(err))
	}

	ticker := time.NewTicker(ir.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ir.reloadLogged(ctx)
		case <-ir.manualTrigger:
			ir.logger.Info("manual import triggered")
			ir.reloadLogged(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ir.concerns(ev) {
				ir.logger.Debug("import file changed", logger.String("op", ev.Op.String()))
				debounce = time.After(ir.debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			ir.logger.Warn("file watch error", logger.Error(err))
		case <-debounce:
			debounce = nil
			ir.reloadLogged(ctx)
		case <-ir.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop stops the reloader
func (ir *ImportReloader) Stop() {
	ir.stopOnce.Do(func() { close(ir.stopCh) })
}

// newWatcher watches the file's directory: editors often replace the file
// instead of writing it in place.
func (ir *ImportReloader) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(ir.loader.Path())); err != nil {
		_ = w.Close()
		return nil, err
	}
	return w, nil
}

func (ir *ImportReloader) concerns(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(ir.loader.Path()) {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (ir *ImportReloader) reloadLogged(ctx context.Context) {
	if _, err := ir.Reload(ctx); err != nil {
		ir.logger.Error("failed to import bookmarks", logger.Error(err))
	}
}

// Reload runs every entry of the file through the ingester, one at a time.
func (ir *ImportReloader) Reload(ctx context.Context) (ImportStatus, error) {
	ir.logger.Info("importing bookmarks from homepage", logger.String("file", ir.loader.Path()))

	status := ImportStatus{LastRun: time.Now().UTC()}

	entries, err := ir.loader.Load()
	if err != nil {
		status.Error = err.Error()
		ir.setStatus(status)
		return status, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	status.Entries = len(entries)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			status.Error = err.Error()
			ir.setStatus(status)
			return status, err
		}

		outcome := ir.importEntry(ctx, entry)
		switch outcome {
		case OutcomeImported:
			status.Imported++
		case OutcomeDuplicate:
			status.Duplicates++
		case OutcomeRejected:
			status.Rejected++
		default:
			status.Failed++
		}
		ir.metrics.ImportEntry(outcome)
	}

	ir.setStatus(status)
	ir.logger.Info("homepage import done",
		logger.Int("entries", status.Entries),
		logger.Int("imported", status.Imported),
		logger.Int("duplicates", status.Duplicates),
		logger.Int("rejected", status.Rejected),
		logger.Int("failed", status.Failed))
	return status, nil
}

func (ir *ImportReloader) importEntry(ctx context.Context, entry homepage.Entry) string {
	_, err := ir.ingester.Ingest(ctx, ingest.Request{OwnerID: ir.owner, URL: entry.URL, Title: entry.Title})

	var (
		dup   *ingest.DuplicateError
		input *ingest.InputError
	)
	switch {
	case err == nil:
		return OutcomeImported
	case errors.As(err, &dup):
		return OutcomeDuplicate
	case errors.As(err, &input):
		ir.logger.Warn("skipping invalid homepage entry",
			logger.String("group", entry.Group),
			logger.String("title", entry.Title),
			logger.Error(err))
		return OutcomeRejected
	default:
		ir.logger.Error("failed to import homepage entry",
			logger.String("url", entry.URL),
			logger.Error(err))
		return OutcomeFailed
	}
}

func (ir *ImportReloader) setStatus(s ImportStatus) {
	ir.mu.Lock()
	ir.status = s
	ir.mu.Unlock()
}

// Status returns the outcome of the last run; LastRun is zero before the
// first one.
func (ir *ImportReloader) Status() ImportStatus {
	ir.mu.RLock()
	defer ir.mu.RUnlock()
	return ir.status
}
