// Package watch re-runs work whenever documents under a directory change.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/semtrace/source"
)

// DefaultDebounceDelay is how long changes accumulate before a flush.
const DefaultDebounceDelay = 500 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// DebounceDelay is how long to collect changes before reporting them.
	DebounceDelay time.Duration

	// Pattern selects the documents whose changes are reported (default *.md).
	Pattern string
}

// DefaultConfig returns the default watch configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: DefaultDebounceDelay,
		Pattern:       source.DefaultPattern,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DebounceDelay <= 0 {
		return fmt.Errorf("debounce delay must be positive, got %s", c.DebounceDelay)
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return fmt.Errorf("invalid document pattern %q", c.Pattern)
	}
	return nil
}

// ChangeFunc receives the names of documents changed since the last call,
// relative to the watched directory and sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher watches one documentation directory. Subdirectories are ignored,
// matching the flat layout the scanner reads.
type Watcher struct {
	config  Config
	dir     string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	// Content hashes of documents already reported, so that saves without
	// edits do not trigger a run.
	hashes map[string]string
}

// New creates a watcher on dir. The directory must exist; the watch is
// registered before New returns so no change made afterwards is missed.
func New(cfg Config, dir string, logger *slog.Logger) (*Watcher, error) {
	if cfg.Pattern == "" {
		cfg.Pattern = source.DefaultPattern
	}
	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watch config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &source.ScanError{Path: dir, Err: fmt.Errorf("%w: %w", source.ErrRootUnavailable, err)}
	}
	if !info.IsDir() {
		return nil, &source.ScanError{Path: dir, Err: fmt.Errorf("%w: not a directory", source.ErrRootUnavailable)}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		config:  cfg,
		dir:     dir,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
	}
	w.seedHashes()
	return w, nil
}

// Run delivers debounced changes to fn until ctx is cancelled, then releases
// the underlying watcher. Calls to fn never overlap.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	defer w.watcher.Close()

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	w.logger.Info("Document watcher started",
		slog.String("dir", w.dir),
		slog.String("pattern", w.config.Pattern),
		slog.Duration("debounce", w.config.DebounceDelay))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Document watcher stopped", slog.String("dir", w.dir))
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if changed := w.flushPending(); len(changed) > 0 {
				fn(ctx, changed)
			}
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return
	}
	name := filepath.Base(event.Name)
	if ok, _ := doublestar.Match(w.config.Pattern, name); !ok {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	w.pendingMu.Lock()
	w.pending[name] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Document change detected",
		slog.String("file", name),
		slog.String("op", event.Op.String()))
}

// flushPending returns the documents whose content changed since they were
// last reported. Removed documents always count as changed.
func (w *Watcher) flushPending() []string {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return nil
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	changed := make([]string, 0, len(toProcess))
	for name := range toProcess {
		content, err := os.ReadFile(filepath.Join(w.dir, name))
		if err != nil {
			if _, known := w.hashes[name]; known || os.IsNotExist(err) {
				delete(w.hashes, name)
				changed = append(changed, name)
			}
			continue
		}

		hash := contentHash(content)
		if old, ok := w.hashes[name]; ok && old == hash {
			continue
		}
		w.hashes[name] = hash
		changed = append(changed, name)
	}

	sort.Strings(changed)
	return changed
}

func (w *Watcher) seedHashes() {
	paths, err := source.List(w.dir, w.config.Pattern)
	if err != nil {
		w.logger.Warn("Failed to index documents", slog.String("error", err.Error()))
		return
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		w.hashes[filepath.Base(path)] = contentHash(content)
	}
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
