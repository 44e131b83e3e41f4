package vault

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the bursts of write events editors produce when
// saving a file.
const debounceDelay = 250 * time.Millisecond

// Watcher keeps the index in sync with filesystem changes under a vault.
// Events are debounced per path; directories created while watching are
// picked up automatically.
type Watcher struct {
	vault   *Vault
	indexer *Indexer
	fsw     *fsnotify.Watcher
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over every directory in the vault
func NewWatcher(v *Vault, ix *Indexer, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		vault:   v,
		indexer: ix,
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}

	err = filepath.WalkDir(v.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch vault: %w", err)
	}
	return w, nil
}

// Run processes filesystem events until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	w.cancelPending()
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.vault.Root(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.vault.matches(rel) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.debounce(rel, func() { w.removeNote(rel) })
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.debounce(rel, func() { w.reindexNote(rel, event.Name) })
	}
}

// debounce schedules fn for the path, resetting any pending timer
func (w *Watcher) debounce(rel string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[rel]; ok {
		timer.Stop()
	}
	w.pending[rel] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, rel)
		w.mu.Unlock()
		fn()
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = make(map[string]*time.Timer)
}

func (w *Watcher) reindexNote(rel, abs string) {
	content, err := os.ReadFile(abs) // #nosec G304 - path observed under the watched root
	if err != nil {
		// The file may already be gone again
		if os.IsNotExist(err) {
			w.removeNote(rel)
			return
		}
		w.logger.Warn("cannot read changed note", "path", rel, "error", err)
		return
	}

	doc, err := ParseDocument(rel, content)
	if err != nil {
		w.logger.Warn("skipping changed note", "path", rel, "error", err)
		return
	}
	if err := w.indexer.Index(doc); err != nil {
		w.logger.Error("reindex failed", "path", rel, "error", err)
		return
	}
	w.logger.Debug("note reindexed", "path", rel)
}

func (w *Watcher) removeNote(rel string) {
	if err := w.indexer.Remove(rel); err != nil {
		w.logger.Error("remove failed", "path", rel, "error", err)
		return
	}
	w.logger.Debug("note removed", "path", rel)
}
