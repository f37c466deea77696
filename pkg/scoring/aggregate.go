// Package scoring rolls classified connections up into one security posture.
package scoring

import "github.com/gokaycavdar/go-netguard/pkg/models"

// Penalties applied to the initial perfect score of 100.
const (
	WarningPenalty       = 4
	DangerPenalty        = 10
	SuspiciousPortWeight = 3
	SuspiciousPortCap    = 20
	GeoFailureWeight     = 1
	GeoFailureCap        = 10
	LowSecurePenalty     = 5

	// MinSecureRatio is the share of secure-port connections below which
	// LowSecurePenalty applies.
	MinSecureRatio = 0.2
)

// Aggregator computes a SecuritySummary. It keeps no state between calls.
type Aggregator struct {
	Suspicious models.PortSet
	Secure     models.PortSet
}

// NewAggregator creates an aggregator for the given port tables.
func NewAggregator(suspicious, secure models.PortSet) Aggregator {
	return Aggregator{Suspicious: suspicious, Secure: secure}
}

// Default uses models.DefaultSuspiciousPorts and models.DefaultSecurePorts.
func Default() Aggregator {
	return NewAggregator(
		models.NewPortSet(models.DefaultSuspiciousPorts...),
		models.NewPortSet(models.DefaultSecurePorts...),
	)
}

// Aggregate scores conns. An empty slice is maximally secure.
func (a Aggregator) Aggregate(conns []models.ClassifiedConnection) models.SecuritySummary {
	s := models.SecuritySummary{Total: len(conns)}

	for _, c := range conns {
		switch c.RiskLevel {
		case models.RiskWarning:
			s.Warnings++
		case models.RiskDanger:
			s.Threats++
		}
		port := c.RemotePort()
		if a.Secure.Contains(port) {
			s.Secure++
		}
		if a.Suspicious.Contains(port) {
			s.SuspiciousPorts++
		}
		if c.Geo.Failed() {
			s.GeoFailures++
		}
	}

	s.Score = score(s)
	s.Grade = models.GradeFor(s.Score)
	s.Recommendations = recommendations(s, conns)
	s.RiskFactors = riskFactors(conns)
	return s
}

func score(s models.SecuritySummary) int {
	score := 100
	score -= s.Warnings * WarningPenalty
	score -= s.Threats * DangerPenalty
	score -= min(s.SuspiciousPorts*SuspiciousPortWeight, SuspiciousPortCap)
	score -= min(s.GeoFailures*GeoFailureWeight, GeoFailureCap)
	if s.Total > 0 && float64(s.Secure)/float64(s.Total) < MinSecureRatio {
		score -= LowSecurePenalty
	}
	return max(0, min(100, score))
}
