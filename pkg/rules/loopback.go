package rules

import "github.com/gokaycavdar/go-netguard/pkg/models"

// LoopbackRule ends classification for loopback traffic, which is always benign.
type LoopbackRule struct{}

func (LoopbackRule) Name() string {
	return "loopback"
}

func (LoopbackRule) Evaluate(in Input) (Finding, bool) {
	if !IsLoopback(in.Address) {
		return Finding{}, false
	}
	return Finding{Level: models.RiskInfo, Final: true}, true
}
