package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader rebuilds the dataset.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) error

// Reload calls f(ctx).
func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

// DatasetWatcher reloads the dataset when one of its source files changes.
type DatasetWatcher struct {
	fsWatcher *fsnotify.Watcher
	files     map[string]struct{}
	reloader  Reloader
	debounce  time.Duration
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// WatchSources starts watching the directories of files. Directories are
// watched rather than the files so that replace-by-rename is noticed.
// Bursts of events within debounce trigger a single reload.
func WatchSources(files []string, reloader Reloader, debounce time.Duration, logger *slog.Logger) (*DatasetWatcher, error) {
	if len(files) == 0 {
		return nil, errors.New("dataset watcher: no source files")
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("dataset watcher: creating fsnotify watcher: %w", err)
	}

	w := &DatasetWatcher{
		fsWatcher: fsw,
		files:     make(map[string]struct{}, len(files)),
		reloader:  reloader,
		debounce:  debounce,
		logger:    logger,
		done:      make(chan struct{}),
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With(slog.String("component", "dataset_watcher"))

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("dataset watcher: resolving %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("dataset watcher: watching directory %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("watching dataset sources",
		slog.Int("files", len(w.files)),
		slog.Int("directories", len(dirs)),
		slog.Duration("debounce", debounce))

	return w, nil
}

// Close stops the watcher and waits for its event loop to exit.
func (w *DatasetWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *DatasetWatcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("source changed",
				slog.String("file", event.Name),
				slog.String("op", event.Op.String()))

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *DatasetWatcher) relevant(event fsnotify.Event) bool {
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *DatasetWatcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	err := w.reloader.Reload(context.Background())
	switch {
	case err == nil:
		w.logger.Info("dataset reloaded after source change")
	case errors.Is(err, ErrReloadInProgress):
		w.logger.Debug("reload skipped, another reload is running")
	default:
		w.logger.Error("reload after source change failed, keeping previous dataset",
			slog.String("error", err.Error()))
	}
}
