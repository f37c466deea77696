package storage

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/gokaycavdar/go-netguard/pkg/geoip"
	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// CacheObserver is notified about cache hits and misses.
type CacheObserver interface {
	CacheHit()
	CacheMiss(status models.GeoStatus)
}

// GeoCache is a read-through cache in front of a geoip.Resolver.
//
// Every record the resolver returns is cached, failures included, so an
// unreachable address is retried at most once per TTL window. Concurrent misses
// for the same address share a single resolver call.
type GeoCache struct {
	resolver geoip.Resolver
	store    GeoStore
	group    singleflight.Group
	observer CacheObserver
}

// NewGeoCache wires resolver behind store.
func NewGeoCache(resolver geoip.Resolver, store GeoStore) *GeoCache {
	return &GeoCache{resolver: resolver, store: store}
}

// SetObserver registers an observer for hit/miss events.
func (c *GeoCache) SetObserver(o CacheObserver) {
	c.observer = o
}

// Resolve returns the cached record for ip or resolves and caches a fresh one.
//
// The resolver runs detached from ctx cancellation but keeps its deadline, so
// a caller that goes away neither aborts the lookup for the callers sharing it
// nor leaves a failure in the cache. Such a caller gets an uncached record
// describing its own context error.
func (c *GeoCache) Resolve(ctx context.Context, ip string) *models.GeoRecord {
	if rec, ok := c.store.Get(ip); ok {
		c.hit()
		return rec
	}
	if err := ctx.Err(); err != nil {
		return abandoned(ip, err)
	}

	ch := c.group.DoChan(ip, func() (any, error) {
		// Another flight may have filled the entry between our Get and DoChan.
		if rec, ok := c.store.Get(ip); ok {
			c.hit()
			return rec, nil
		}

		flightCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithDeadline(flightCtx, deadline)
			defer cancel()
		}

		rec := c.resolver.Resolve(flightCtx, ip)
		if rec == nil {
			rec = models.NewGeoFailure(ip, models.GeoError, models.FailureMalformed, "resolver returned no record")
		}
		c.store.Put(ip, rec)
		if c.observer != nil {
			c.observer.CacheMiss(rec.Status)
		}
		return rec, nil
	})

	select {
	case res := <-ch:
		return res.Val.(*models.GeoRecord)
	case <-ctx.Done():
		return abandoned(ip, ctx.Err())
	}
}

// abandoned describes a lookup the caller stopped waiting for. It is never
// stored.
func abandoned(ip string, err error) *models.GeoRecord {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewGeoFailure(ip, models.GeoError, models.FailureTimeout, "Request timeout")
	}
	return models.NewGeoSkipped(ip, models.FailureCanceled, "Lookup canceled")
}

func (c *GeoCache) hit() {
	if c.observer != nil {
		c.observer.CacheHit()
	}
}
