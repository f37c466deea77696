package storage

import (
	"sync"
	"time"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// DefaultTTL is how long a geolocation record is served before it is refreshed.
const DefaultTTL = time.Hour

type cacheEntry struct {
	storedAt time.Time
	record   *models.GeoRecord
}

// MemoryStore is a thread-safe TTL map of geolocation records.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryStore creates a store whose entries expire after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get implements GeoStore.
func (m *MemoryStore) Get(ip string) (*models.GeoRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[ip]
	if !ok || m.now().Sub(entry.storedAt) >= m.ttl {
		return nil, false
	}
	return entry.record, true
}

// Put implements GeoStore.
func (m *MemoryStore) Put(ip string, rec *models.GeoRecord) {
	if rec == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[ip] = cacheEntry{storedAt: m.now(), record: rec}
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// TTL returns the configured expiry.
func (m *MemoryStore) TTL() time.Duration {
	return m.ttl
}
