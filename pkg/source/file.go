package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/atomtree/pkg/snapshot"
)

// DefaultDebounce is the quiet period after the last file event before the
// file is re-read.
const DefaultDebounce = 200 * time.Millisecond

// FileSource emits the contents of a snapshot file on start and after every
// change.
type FileSource struct {
	Path     string
	Debounce time.Duration
	Logger   *log.Logger
}

// NewFileSource returns a source for path with the default debounce.
func NewFileSource(path string, logger *log.Logger) *FileSource {
	return &FileSource{Path: path, Debounce: DefaultDebounce, Logger: logger}
}

// Run emits the current file, then watches its directory so that editors
// which replace the file on save are followed too.
func (f *FileSource) Run(ctx context.Context, emit Emit) error {
	logger := f.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	debounce := f.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(f.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", f.Path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	if err := f.load(ctx, logger, emit); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("snapshot file changed", "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			if err := f.load(ctx, logger, emit); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

// load reads and emits the file. Read and decode failures are logged, not
// returned, so a half-written file does not stop the watch.
func (f *FileSource) load(ctx context.Context, logger *log.Logger, emit Emit) error {
	s, err := snapshot.Import(f.Path)
	if err != nil {
		logger.Warn("snapshot not loaded", "path", f.Path, "err", err)
		return nil
	}
	return emit(ctx, s)
}
