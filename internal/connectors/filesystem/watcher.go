package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// PlainTextExtensions are indexed as-is, without a normaliser.
var PlainTextExtensions = []string{".txt", ".text", ".rst", ".log"}

// ErrClosed is returned when a closed watcher is used.
var ErrClosed = errors.New("watcher is closed")

// Watcher finds document files under a root directory and reports
// changes to them.
type Watcher struct {
	root       string
	extensions map[string]struct{}
	debounce   time.Duration
	log        *logger.Logger

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher

	// seen records the directories being watched and the accepted files
	// found under them, so removing a directory can report its files.
	seenMu sync.Mutex
	dirs   map[string]struct{}
	files  map[string]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions restricts the watcher to files with these extensions.
// Matching ignores case. Without it every non-hidden file is accepted.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		for _, ext := range exts {
			w.extensions[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithDebounce coalesces changes to the same file that arrive within d.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLogger sets the logger used for watch errors.
func WithLogger(log *logger.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// New creates a watcher rooted at root.
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:       root,
		extensions: make(map[string]struct{}),
		log:        logger.Discard(),
		dirs:       make(map[string]struct{}),
		files:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Accepts reports whether path is a document this watcher tracks.
func (w *Watcher) Accepts(path string) bool {
	if isHidden(w.relative(path)) {
		return false
	}
	if len(w.extensions) == 0 {
		return true
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Files returns every accepted file under the root, sorted.
// Hidden directories are not descended into.
func (w *Watcher) Files(ctx context.Context) ([]string, error) {
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && w.Accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", w.root, err)
	}
	w.trackFiles(files...)
	slices.Sort(files)
	return files, nil
}

// Watch reports changes to accepted files until ctx is cancelled or the
// watcher is closed, then closes the returned channel. Directories created
// after the call are watched too.
func (w *Watcher) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if err := w.checkRoot(); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	w.watcher = fw

	out := make(chan domain.FileChange, 64)
	go w.loop(ctx, fw, out)
	return out, nil
}

// Close stops any running watch. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- domain.FileChange) {
	defer close(out)
	defer fw.Close()

	pending := newCoalescer()
	var timer *time.Timer
	var fire <-chan time.Time

	emit := func(c domain.FileChange) bool {
		select {
		case out <- c:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			changes := w.expand(fw, event)
			for _, c := range changes {
				if w.debounce <= 0 {
					if !emit(c) {
						return
					}
					continue
				}
				pending.add(c)
			}
			if w.debounce > 0 && len(changes) > 0 {
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C
			}

		case <-fire:
			fire = nil
			for _, c := range pending.drain() {
				if !emit(c) {
					return
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watch error: %v", err)
		}
	}
}

// expand turns one fsnotify event into file changes. A new directory is
// added to the watch and its existing files are reported as created, since
// they may have been written before the directory was watched. A removed
// or renamed directory reports every file known under it as deleted.
func (w *Watcher) expand(fw *fsnotify.Watcher, event fsnotify.Event) []domain.FileChange {
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if changes, ok := w.forgetDir(event.Name); ok {
			return changes
		}
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if isHidden(w.relative(event.Name)) {
				return nil
			}
			if err := w.addTree(fw, event.Name); err != nil {
				w.log.Warn("Cannot watch %s: %v", event.Name, err)
			}
			sub := New(event.Name)
			sub.extensions = w.extensions
			files, err := sub.Files(context.Background())
			if err != nil {
				return nil
			}
			changes := make([]domain.FileChange, 0, len(files))
			for _, f := range files {
				changes = append(changes, domain.FileChange{Type: domain.ChangeCreated, Path: f})
			}
			return changes
		}
	}

	if c := w.handleFsEvent(event); c != nil {
		return []domain.FileChange{*c}
	}
	return nil
}

// handleFsEvent maps a single fsnotify event to a file change, or nil when
// the event is irrelevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	if !w.Accepts(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.untrackFile(event.Name)
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: event.Name}

	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		kind := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			kind = domain.ChangeCreated
		}
		w.trackFiles(event.Name)
		return &domain.FileChange{Type: kind, Path: event.Name}

	default:
		return nil
	}
}

// addTree watches dir and every non-hidden directory below it, recording
// the accepted files it passes.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if d.Type().IsRegular() && w.Accepts(path) {
				w.trackFiles(path)
			}
			return nil
		}
		if path != w.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		w.seenMu.Lock()
		w.dirs[filepath.Clean(path)] = struct{}{}
		w.seenMu.Unlock()
		return nil
	})
}

func (w *Watcher) trackFiles(paths ...string) {
	w.seenMu.Lock()
	defer w.seenMu.Unlock()
	for _, p := range paths {
		w.files[filepath.Clean(p)] = struct{}{}
	}
}

func (w *Watcher) untrackFile(path string) {
	w.seenMu.Lock()
	defer w.seenMu.Unlock()
	delete(w.files, filepath.Clean(path))
}

// forgetDir drops a watched directory and everything recorded below it.
// It returns a deletion for each known file, sorted by path, and false
// when dir was not a watched directory.
func (w *Watcher) forgetDir(dir string) ([]domain.FileChange, bool) {
	dir = filepath.Clean(dir)

	w.seenMu.Lock()
	defer w.seenMu.Unlock()

	if _, ok := w.dirs[dir]; !ok {
		return nil, false
	}
	prefix := dir + string(filepath.Separator)
	if dir == "." {
		prefix = ""
	}
	for d := range w.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}

	var changes []domain.FileChange
	for f := range w.files {
		if strings.HasPrefix(f, prefix) {
			delete(w.files, f)
			changes = append(changes, domain.FileChange{Type: domain.ChangeDeleted, Path: f})
		}
	}
	slices.SortFunc(changes, func(a, b domain.FileChange) int { return strings.Compare(a.Path, b.Path) })
	return changes, true
}

func (w *Watcher) checkRoot() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}
	return nil
}

// relative returns path relative to the root so a root inside a hidden
// directory does not hide everything below it.
func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// coalescer merges changes to the same path while a debounce window is open.
type coalescer struct {
	changes map[string]domain.ChangeType
}

func newCoalescer() *coalescer {
	return &coalescer{changes: make(map[string]domain.ChangeType)}
}

func (c *coalescer) add(change domain.FileChange) {
	prev, ok := c.changes[change.Path]
	if !ok {
		c.changes[change.Path] = change.Type
		return
	}
	switch {
	case change.Type == domain.ChangeDeleted && prev == domain.ChangeCreated:
		// Created and removed inside one window: nothing to report.
		delete(c.changes, change.Path)
	case change.Type == domain.ChangeDeleted:
		c.changes[change.Path] = domain.ChangeDeleted
	case prev == domain.ChangeCreated:
		// A write after a create is still a create.
	case prev == domain.ChangeDeleted:
		c.changes[change.Path] = domain.ChangeUpdated
	default:
		c.changes[change.Path] = change.Type
	}
}

// drain returns the pending changes sorted by path and empties the set.
func (c *coalescer) drain() []domain.FileChange {
	out := make([]domain.FileChange, 0, len(c.changes))
	for path, kind := range c.changes {
		out = append(out, domain.FileChange{Type: kind, Path: path})
	}
	slices.SortFunc(out, func(a, b domain.FileChange) int { return strings.Compare(a.Path, b.Path) })
	clear(c.changes)
	return out
}
