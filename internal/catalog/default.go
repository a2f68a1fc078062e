package catalog

import (
	"path/filepath"
	"sync"
)

var (
	defaultMu    sync.Mutex
	defaultStore *Store
	defaultDir   = filepath.Join("internal", "catalog", "data")
)

// SetDefaultDir changes the directory the default store loads from and drops
// any store already loaded.
func SetDefaultDir(dir string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDir = dir
	defaultStore = nil
}

// Default returns the process-wide catalog store, loading it on first use.
// The store is effectively immutable once loaded.
func Default() (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore != nil {
		return defaultStore, nil
	}
	store, err := Load(defaultDir)
	if err != nil {
		return nil, err
	}
	defaultStore = store
	return defaultStore, nil
}

// Reset discards the default store so the next Default call reloads from disk.
// Intended for test harnesses.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}
