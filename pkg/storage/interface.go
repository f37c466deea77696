package storage

import "github.com/gokaycavdar/go-netguard/pkg/models"

// GeoStore holds geolocation records keyed by IP address.
// Implementations can use any backend as long as expiry is honoured on read.
//
// Get must treat an entry older than the store's TTL as absent. Expired entries
// are not evicted: they stay until the next Put for the same address replaces
// them, so the store grows with the number of distinct addresses seen during
// the process lifetime.
type GeoStore interface {
	// Get returns the live record for ip, if any.
	Get(ip string) (*models.GeoRecord, bool)

	// Put stores rec for ip, stamped with the current time.
	Put(ip string, rec *models.GeoRecord)
}
