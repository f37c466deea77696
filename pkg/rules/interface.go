package rules

import (
	"net/netip"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// Input is everything a rule may look at for one connection.
type Input struct {
	// Address is the parsed remote address. It is the zero Addr when RawAddress
	// is not a literal IP, in which case address-based rules do not match.
	Address    netip.Addr
	RawAddress string
	Port       int
	State      string
	// Geo is nil when no lookup was made.
	Geo *models.GeoRecord
}

// NewInput parses rawAddress and builds an Input.
func NewInput(port int, state string, geo *models.GeoRecord, rawAddress string) Input {
	addr, _ := ParseAddr(rawAddress)
	return Input{Address: addr, RawAddress: rawAddress, Port: port, State: state, Geo: geo}
}

// Finding is what a matching rule contributes.
type Finding struct {
	// Level is the minimum level the connection is raised to.
	Level models.RiskLevel
	// Reason is appended to the connection's reasons when not empty.
	Reason string
	// Final stops evaluation of every later rule.
	Final bool
}

// Rule is one step of the classification chain.
type Rule interface {
	// Name is a short unique identifier, e.g. "suspicious-port".
	Name() string

	// Evaluate reports whether the rule applies to in and what it contributes.
	Evaluate(in Input) (Finding, bool)
}
