package rules

import "github.com/gokaycavdar/go-netguard/pkg/models"

// GeoFailureRule notes a failed geolocation lookup. It is informational only
// and never changes the risk level on its own.
type GeoFailureRule struct{}

func (GeoFailureRule) Name() string {
	return "geolocation-failure"
}

func (GeoFailureRule) Evaluate(in Input) (Finding, bool) {
	if !in.Geo.Failed() {
		return Finding{}, false
	}
	return Finding{Level: models.RiskInfo, Reason: "Geolocation lookup failed"}, true
}
