package model

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader is implemented by Server.
type Reloader interface {
	Reload() error
}

var reloadDelay = 250 * time.Millisecond

// Watch reloads r whenever modelPath is written or replaced, until ctx is
// done. Bursts of events are coalesced into one reload.
func Watch(ctx context.Context, modelPath string, r Reloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create model watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(modelPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", modelPath, err)
	}
	target := filepath.Clean(modelPath)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(reloadDelay)
			}

		case <-timer.C:
			if err := r.Reload(); err != nil {
				log.Printf("Model reload failed: %v", err)
				continue
			}
			log.Printf("Model reloaded: %s", modelPath)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Model watcher error: %v", err)
		}
	}
}
