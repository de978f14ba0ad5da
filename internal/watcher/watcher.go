// Package watcher detects deletion of the store's database file out from
// under the running service and triggers recreation.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DBWatcher watches the directory holding the database file and invokes
// onGone when the file is removed. The parent directory is watched because
// fsnotify cannot watch a path that no longer exists.
type DBWatcher struct {
	dbPath   string
	dir      string
	onGone   func()
	fsw      *fsnotify.Watcher
	cancel   context.CancelFunc
	debounce time.Duration
}

// New creates a watcher for the database file at dbPath.
func New(dbPath string, onGone func()) (*DBWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &DBWatcher{
		dbPath:   filepath.Clean(dbPath),
		dir:      filepath.Dir(dbPath),
		onGone:   onGone,
		fsw:      fsw,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Start begins watching until Stop is called.
func (w *DBWatcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.loop(ctx)
	return nil
}

// Stop stops the watcher.
func (w *DBWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.fsw.Close()
}

func (w *DBWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			gone := filepath.Clean(event.Name)
			removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			if !removed || (gone != w.dbPath && gone != w.dir) {
				continue
			}
			log.Info().Str("path", gone).Msg("Database path removed")
			// Debounce: WAL checkpointing can remove and recreate
			// sidecar files in quick succession.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onGone)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}
