package models

// GeoStatus is the outcome of a geolocation resolution.
type GeoStatus string

const (
	GeoSuccess GeoStatus = "success"
	GeoFail    GeoStatus = "fail"
	GeoError   GeoStatus = "error"
	GeoSkipped GeoStatus = "skipped"
)

// FailureKind says why a record is not a success. Callers branch on it
// instead of parsing Message.
type FailureKind string

const (
	FailureInvalidAddress FailureKind = "invalid_address"
	FailureTimeout        FailureKind = "timeout"
	FailureNetwork        FailureKind = "network"
	FailureRejected       FailureKind = "rejected"
	FailureMalformed      FailureKind = "malformed"
	FailureNotFound       FailureKind = "not_found"
	FailureQuota          FailureKind = "quota"
	FailurePrivate        FailureKind = "private"
	FailureCanceled       FailureKind = "canceled"
)

// GeoRecord is the geolocation result for one address.
//
// Records are treated as immutable once returned by a resolver: the cache hands
// the same pointer to every connection that references the address.
type GeoRecord struct {
	IP          string      `json:"ip"`
	Status      GeoStatus   `json:"status"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Message     string      `json:"message,omitempty"`
	Source      string      `json:"source,omitempty"`

	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Latitude    float64 `json:"lat,omitempty"`
	Longitude   float64 `json:"lon,omitempty"`
	Timezone    string  `json:"timezone,omitempty"`
	ISP         string  `json:"isp,omitempty"`
	ASN         string  `json:"asn,omitempty"`
	Org         string  `json:"org,omitempty"`
}

// OK reports a successful resolution.
func (g *GeoRecord) OK() bool {
	return g != nil && g.Status == GeoSuccess
}

// Failed reports a resolution that was attempted and did not succeed.
// Skipped and missing records are not failures.
func (g *GeoRecord) Failed() bool {
	return g != nil && (g.Status == GeoFail || g.Status == GeoError)
}

// NewGeoFailure builds a failed record.
func NewGeoFailure(ip string, status GeoStatus, kind FailureKind, message string) *GeoRecord {
	return &GeoRecord{IP: ip, Status: status, FailureKind: kind, Message: message}
}

// NewGeoSkipped builds the synthetic record for an address that was not looked up.
func NewGeoSkipped(ip string, kind FailureKind, message string) *GeoRecord {
	return &GeoRecord{IP: ip, Status: GeoSkipped, FailureKind: kind, Message: message}
}
