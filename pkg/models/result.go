package models

import "time"

// RiskLevel is the ordinal classification of one connection.
type RiskLevel string

const (
	RiskInfo    RiskLevel = "info"
	RiskWarning RiskLevel = "warning"
	RiskDanger  RiskLevel = "danger"
)

// Rank orders levels: info < warning < danger.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskDanger:
		return 2
	case RiskWarning:
		return 1
	default:
		return 0
	}
}

// Raise returns the higher of the two levels.
func (l RiskLevel) Raise(other RiskLevel) RiskLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// ClassifiedConnection is a connection together with its geolocation and verdict.
type ClassifiedConnection struct {
	Connection
	Geo       *GeoRecord `json:"geo"`
	RiskLevel RiskLevel  `json:"risk_level"`
	Risks     []string   `json:"risks"`
	IsPrivate bool       `json:"is_private"`
}

// RemotePort returns the remote port, or 0 when there is no remote endpoint.
func (c ClassifiedConnection) RemotePort() int {
	if c.Remote == nil {
		return 0
	}
	return c.Remote.Port
}

// RemoteIP returns the remote address, or "" when there is no remote endpoint.
func (c ClassifiedConnection) RemoteIP() string {
	if c.Remote == nil {
		return ""
	}
	return c.Remote.Address
}

// Grade is the coarse bucket derived from a security score.
type Grade string

const (
	GradeExcellent Grade = "Excellent"
	GradeGood      Grade = "Good"
	GradeFair      Grade = "Fair"
	GradePoor      Grade = "Poor"
)

// GradeFor maps a score onto its grade.
func GradeFor(score int) Grade {
	switch {
	case score >= 85:
		return GradeExcellent
	case score >= 70:
		return GradeGood
	case score >= 55:
		return GradeFair
	default:
		return GradePoor
	}
}

// SecuritySummary is the aggregated security posture of one investigation pass.
type SecuritySummary struct {
	Score           int      `json:"score"`
	Grade           Grade    `json:"grade"`
	Warnings        int      `json:"warnings"`
	Threats         int      `json:"threats"`
	Secure          int      `json:"secure_connections"`
	SuspiciousPorts int      `json:"suspicious_ports"`
	GeoFailures     int      `json:"geo_failures"`
	Total           int      `json:"total_connections"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"risk_factors"`
}

// CountryCount is one entry of the top-countries tally.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// ReportSummary holds pass-wide totals.
type ReportSummary struct {
	TotalConnections    int            `json:"total_connections"`
	TopCountries        []CountryCount `json:"top_countries"`
	ExternalConnections int            `json:"external_connections"`
	PrivateConnections  int            `json:"private_connections"`
}

// ScanMetadata describes how much work a pass did.
type ScanMetadata struct {
	ConnectionsScanned int `json:"connections_scanned"`
	ListeningSkipped   int `json:"listening_skipped"`
	GeoLookups         int `json:"geo_lookups"`
	GeoSkipped         int `json:"geo_skipped"`
}

// PassError marks a pass whose connection snapshot could not be obtained.
type PassError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// InvestigationReport is everything one investigation pass produces.
type InvestigationReport struct {
	ID          string                 `json:"id"`
	Hostname    string                 `json:"hostname,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	Duration    time.Duration          `json:"duration_ns"`
	Connections []ClassifiedConnection `json:"connections"`
	Security    SecuritySummary        `json:"security"`
	Summary     ReportSummary          `json:"summary"`
	Metadata    ScanMetadata           `json:"scan_metadata"`
	Error       *PassError             `json:"error,omitempty"`
}
