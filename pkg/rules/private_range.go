package rules

import "github.com/gokaycavdar/go-netguard/pkg/models"

// PrivateRangeRule sets an info baseline for RFC 1918 and unique-local peers.
// It never stops the chain: a private peer on a suspicious port or in an odd
// state is still escalated by the rules that follow.
type PrivateRangeRule struct{}

func (PrivateRangeRule) Name() string {
	return "private-range"
}

func (PrivateRangeRule) Evaluate(in Input) (Finding, bool) {
	if !IsPrivate(in.Address) {
		return Finding{}, false
	}
	return Finding{Level: models.RiskInfo}, true
}
