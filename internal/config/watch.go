package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"go-genai-core/internal/authcoordinator"
	"go-genai-core/internal/authstrategy"
)

// Invalidator is the subset of authcoordinator.Coordinator this package
// depends on, so tests can substitute a fake.
type Invalidator interface {
	Refresh(ctx context.Context, strategy authstrategy.Strategy) (authstrategy.Credentials, error)
}

var _ Invalidator = (*authcoordinator.Coordinator)(nil)

// WatchServiceAccountFile watches path and forces a VertexAI credential
// refresh whenever it changes on disk, so a rotated service-account key
// takes effect without a process restart. It returns a stop function; it
// is a no-op if path is empty.
func WatchServiceAccountFile(ctx context.Context, path string, coordinator Invalidator) (stop func(), err error) {
	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	var once sync.Once
	stop = func() { once.Do(func() { _ = watcher.Close() }) }

	go func() {
		defer watcher.Close()
		for {
			select {
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != filepath.Clean(path) {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.WithField("path", path).Info("service account key changed, forcing credential refresh")
				if _, refreshErr := coordinator.Refresh(ctx, authstrategy.VertexAI); refreshErr != nil {
					log.WithError(refreshErr).Warn("failed to refresh credentials after service account key change")
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(watchErr).Warn("service account file watcher error")
			case <-ctx.Done():
				return
			}
		}
	}()

	return stop, nil
}
