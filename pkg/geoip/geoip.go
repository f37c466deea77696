package geoip

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/oschwald/geoip2-golang"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// MMDBResolver answers lookups from local MaxMind GeoLite2 databases.
type MMDBResolver struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
}

// NewMMDBResolver opens the City database and, when asnDBPath is not empty,
// the ASN database.
func NewMMDBResolver(cityDBPath, asnDBPath string) (*MMDBResolver, error) {
	cityReader, err := geoip2.Open(cityDBPath)
	if err != nil {
		return nil, fmt.Errorf("opening city database: %w", err)
	}

	r := &MMDBResolver{cityReader: cityReader}
	if asnDBPath == "" {
		return r, nil
	}

	asnReader, err := geoip2.Open(asnDBPath)
	if err != nil {
		cityReader.Close()
		return nil, fmt.Errorf("opening asn database: %w", err)
	}
	r.asnReader = asnReader
	return r, nil
}

// Close releases the database handles.
func (s *MMDBResolver) Close() {
	if s.cityReader != nil {
		s.cityReader.Close()
	}
	if s.asnReader != nil {
		s.asnReader.Close()
	}
}

// Resolve implements Resolver.
func (s *MMDBResolver) Resolve(_ context.Context, ipAddress string) *models.GeoRecord {
	addr, failure := ValidateIP(ipAddress)
	if failure != nil {
		failure.Source = "mmdb"
		return failure
	}
	ip := net.IP(addr.AsSlice())

	record, err := s.cityReader.City(ip)
	if err != nil {
		return &models.GeoRecord{IP: ipAddress, Status: models.GeoError, FailureKind: models.FailureMalformed, Message: err.Error(), Source: "mmdb"}
	}
	if record.Country.IsoCode == "" && record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return &models.GeoRecord{IP: ipAddress, Status: models.GeoFail, FailureKind: models.FailureNotFound, Message: "address not in database", Source: "mmdb"}
	}

	geo := &models.GeoRecord{
		IP:          ipAddress,
		Status:      models.GeoSuccess,
		Source:      "mmdb",
		City:        record.City.Names["en"],
		Country:     record.Country.Names["en"],
		CountryCode: record.Country.IsoCode,
		Latitude:    record.Location.Latitude,
		Longitude:   record.Location.Longitude,
		Timezone:    record.Location.TimeZone,
	}
	if len(record.Subdivisions) > 0 {
		geo.Region = record.Subdivisions[0].Names["en"]
	}

	if s.asnReader != nil {
		if asn, err := s.asnReader.ASN(ip); err == nil && asn.AutonomousSystemNumber != 0 {
			geo.ASN = "AS" + strconv.FormatUint(uint64(asn.AutonomousSystemNumber), 10)
			geo.Org = asn.AutonomousSystemOrganization
			geo.ISP = asn.AutonomousSystemOrganization
		}
	}
	return geo
}
