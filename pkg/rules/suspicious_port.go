package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// SuspiciousPortRule flags remote ports historically associated with
// backdoors, malware and insecure remote-access services.
type SuspiciousPortRule struct {
	Ports models.PortSet
}

// NewSuspiciousPortRule creates the rule for the given ports.
func NewSuspiciousPortRule(ports models.PortSet) *SuspiciousPortRule {
	return &SuspiciousPortRule{Ports: ports}
}

// DefaultSuspiciousPortRule uses models.DefaultSuspiciousPorts.
func DefaultSuspiciousPortRule() *SuspiciousPortRule {
	return NewSuspiciousPortRule(models.NewPortSet(models.DefaultSuspiciousPorts...))
}

func (r *SuspiciousPortRule) Name() string {
	return "suspicious-port"
}

func (r *SuspiciousPortRule) Evaluate(in Input) (Finding, bool) {
	if !r.Ports.Contains(in.Port) {
		return Finding{}, false
	}
	return Finding{
		Level:  models.RiskDanger,
		Reason: fmt.Sprintf("Remote port %d is commonly abused", in.Port),
	}, true
}
