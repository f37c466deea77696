// Package geoip resolves IP addresses into geolocation records.
//
// Resolvers never return Go errors: every failure mode is folded into the
// record's Status and FailureKind so callers can classify on data alone.
package geoip

import (
	"context"
	"net/netip"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// Resolver looks up the geolocation of a single address.
type Resolver interface {
	Resolve(ctx context.Context, ip string) *models.GeoRecord
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ctx context.Context, ip string) *models.GeoRecord

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, ip string) *models.GeoRecord {
	return f(ctx, ip)
}

// ValidateIP parses ip and returns an invalid_address failure record when it is
// not a literal IPv4 or IPv6 address.
func ValidateIP(ip string) (netip.Addr, *models.GeoRecord) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, models.NewGeoFailure(ip, models.GeoError, models.FailureInvalidAddress, "Invalid IP address")
	}
	return addr.Unmap(), nil
}

// Chain tries each resolver in order and returns the first successful record.
// When none succeeds the last failure is returned.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, ip string) *models.GeoRecord {
	var last *models.GeoRecord
	for _, r := range c {
		rec := r.Resolve(ctx, ip)
		if rec.OK() {
			return rec
		}
		last = rec
		if rec != nil && rec.FailureKind == models.FailureInvalidAddress {
			break
		}
	}
	if last == nil {
		return models.NewGeoFailure(ip, models.GeoError, models.FailureNotFound, "no resolver configured")
	}
	return last
}
