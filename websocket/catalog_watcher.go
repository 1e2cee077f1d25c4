// Package websocket polls the model catalog and tells viewers when it changes.
// File: websocket/catalog_watcher.go

package websocket

import (
	"context"
	"slices"
	"sync"
	"time"

	"go-model-viewer/logger"
	"go-model-viewer/models"
)

// CatalogWatcher polls the catalog and broadcasts modelsChanged when the set of names changes.
type CatalogWatcher struct {
	Lister         EntryLister      // catalog to poll
	Messenger      Messenger        // receives modelsChanged broadcasts
	Metrics        MetricsPublisher // catalog size gauge; may be nil
	TickerInterval time.Duration    // interval between polls

	mu     sync.Mutex
	last   []string
	primed bool
	cancel context.CancelFunc
	done   chan struct{}
}

// Start begins polling until ctx is done or Stop is called. The first poll only
// records the baseline.
func (w *CatalogWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		logger.Debug.Println("[CatalogWatcher.Start] Already running")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	w.Poll()

	ticker := time.NewTicker(w.interval())
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.Poll()
			case <-ctx.Done():
				logger.Info.Println("[CatalogWatcher] Stopped")
				return
			}
		}
	}()
	logger.Info.Printf("[CatalogWatcher.Start] Polling every %v", w.interval())
}

// Stop ends polling and waits for the poll goroutine to exit.
func (w *CatalogWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Poll lists the catalog once and broadcasts if the names differ from the last poll.
// It reports whether a broadcast was sent.
func (w *CatalogWatcher) Poll() bool {
	entries, err := w.Lister.ListEntries()
	if err != nil {
		logger.Warn.Printf("[CatalogWatcher.Poll] Listing failed: %v", err)
		return false
	}
	names := models.Names(entries)

	w.mu.Lock()
	changed := w.primed && !slices.Equal(names, w.last)
	w.last = names
	w.primed = true
	w.mu.Unlock()

	if w.Metrics != nil {
		w.Metrics.PublishCatalogSize(len(names))
	}
	if !changed {
		return false
	}

	logger.Info.Printf("[CatalogWatcher.Poll] Catalog changed: %v", names)
	w.Messenger.BroadcastMessage(models.ServerMessage{Action: models.ActionModelsChanged, Models: entries})
	return true
}

func (w *CatalogWatcher) interval() time.Duration {
	if w.TickerInterval <= 0 {
		return 5 * time.Second
	}
	return w.TickerInterval
}
