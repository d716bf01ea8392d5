// Package iocache stores fetched GitLab events and the history of recap runs.
package iocache

import (
	"sync"

	"github.com/huangsam/recap/internal/contract"
)

// CacheStoreManager manages the event cache and the run history stores.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	events       contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetEventStore returns the event CacheStore.
func (mgr *CacheStoreManager) GetEventStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.events
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
