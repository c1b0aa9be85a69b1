package store

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileWatcher reloads a FileKV when another process rewrites the flag file,
// so dismissals recorded elsewhere (another console tab, the CLI) are picked
// up without restarting.
type FileWatcher struct {
	kv       *FileKV
	watcher  *fsnotify.Watcher
	logger   zerolog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	onReload func()
}

// NewFileWatcher creates a watcher over the FileKV's backing file.
func NewFileWatcher(kv *FileKV, logger zerolog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		kv:       kv,
		watcher:  watcher,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

// SetReloadCallback registers a callback invoked after each successful reload.
func (w *FileWatcher) SetReloadCallback(callback func()) {
	w.onReload = callback
}

// Start begins watching. The directory is watched rather than the file itself
// because atomic rename replaces the inode on every write.
func (w *FileWatcher) Start() error {
	dir := filepath.Dir(w.kv.Path())
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watchForChanges()
	w.logger.Debug().Str("path", w.kv.Path()).Msg("Watching flag file for changes")
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Failed to close flag file watcher")
		}
	})
}

func (w *FileWatcher) watchForChanges() {
	target := w.kv.Path()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := w.kv.Reload(); err != nil {
				w.logger.Warn().Err(err).Msg("Failed to reload flag file after change")
				continue
			}
			w.logger.Debug().Msg("Reloaded flag file after external change")
			if w.onReload != nil {
				w.onReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Flag file watcher error")
		case <-w.stopChan:
			return
		}
	}
}
