package viewer

import (
	"fmt"
	"sync"

	"go-model-viewer/logger"
	"go-model-viewer/models"
)

// ViewModel is the ordered model list bound to the UI.
type ViewModel struct {
	mu      sync.RWMutex
	entries []models.ModelEntry
	notify  Observer
}

// NewViewModel returns an empty list that reports refreshes to notify.
func NewViewModel(notify Observer) *ViewModel {
	return &ViewModel{entries: []models.ModelEntry{}, notify: notify}
}

// Replace overwrites the list with a copy of entries and returns the receiver for chaining.
func (vm *ViewModel) Replace(entries []models.ModelEntry) *ViewModel {
	next := make([]models.ModelEntry, len(entries))
	copy(next, entries)

	vm.mu.Lock()
	vm.entries = next
	vm.mu.Unlock()

	logger.Debug.Printf("[ViewModel.Replace] %d models", len(next))
	return vm
}

// Clear empties the list and returns the receiver for chaining.
func (vm *ViewModel) Clear() *ViewModel {
	vm.mu.Lock()
	vm.entries = []models.ModelEntry{}
	vm.mu.Unlock()
	return vm
}

// Refresh pushes the current list to the display.
func (vm *ViewModel) Refresh() {
	vm.notify.emit(ModelsEvent{Models: vm.Models()})
}

// Models returns a copy of the current list.
func (vm *ViewModel) Models() []models.ModelEntry {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]models.ModelEntry, len(vm.entries))
	copy(out, vm.entries)
	return out
}

// Names returns the model names in list order.
func (vm *ViewModel) Names() []string {
	return models.Names(vm.Models())
}

// Len is the number of entries.
func (vm *ViewModel) Len() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return len(vm.entries)
}

// LoadByName tells the user the named model is loading. Loading it into the scene
// is not implemented; the returned error wraps ErrNotImplemented.
func (vm *ViewModel) LoadByName(name string) error {
	logger.Info.Printf("[ViewModel.LoadByName] Requested model=%q", name)
	vm.notify.status(LevelInfo, "Loading "+name, nil)
	return fmt.Errorf("load %q: %w", name, ErrNotImplemented)
}
