package rules

import (
	"fmt"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// SteadyStates are the connection states considered normal.
var SteadyStates = []string{"ESTABLISHED", "TIME_WAIT"}

// ConnectionStateRule warns about connections outside a steady state,
// e.g. half-closed or still handshaking sockets.
type ConnectionStateRule struct {
	steady map[string]bool
}

// NewConnectionStateRule treats the given states as steady.
func NewConnectionStateRule(steady ...string) *ConnectionStateRule {
	m := make(map[string]bool, len(steady))
	for _, s := range steady {
		m[s] = true
	}
	return &ConnectionStateRule{steady: m}
}

func (r *ConnectionStateRule) Name() string {
	return "connection-state"
}

func (r *ConnectionStateRule) Evaluate(in Input) (Finding, bool) {
	if r.steady[in.State] {
		return Finding{}, false
	}
	return Finding{
		Level:  models.RiskWarning,
		Reason: fmt.Sprintf("State %s", in.State),
	}, true
}
