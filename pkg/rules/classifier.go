// Package rules classifies a single connection into a risk level with
// human-readable reasons.
package rules

import "github.com/gokaycavdar/go-netguard/pkg/models"

// Verdict is the outcome of classifying one connection.
type Verdict struct {
	Level   models.RiskLevel
	Reasons []string
	Private bool
}

// Classifier evaluates an ordered chain of rules.
//
// Levels only ever rise while the chain runs: each matching rule can raise the
// level to its Finding.Level but never lower it. Reasons accumulate in rule
// order until a rule marks its finding Final.
type Classifier struct {
	rules []Rule
}

// New creates a classifier with the given rules, evaluated in order.
func New(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Default builds the standard chain: loopback, private range, suspicious port,
// connection state, geolocation failure.
func Default(suspicious models.PortSet) *Classifier {
	return New(
		LoopbackRule{},
		PrivateRangeRule{},
		NewSuspiciousPortRule(suspicious),
		NewConnectionStateRule(SteadyStates...),
		GeoFailureRule{},
	)
}

// AddRule appends r to the end of the chain.
func (c *Classifier) AddRule(r Rule) {
	c.rules = append(c.rules, r)
}

// Rules returns the names of the configured rules in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate runs the chain against in.
func (c *Classifier) Evaluate(in Input) Verdict {
	v := Verdict{
		Level:   models.RiskInfo,
		Reasons: []string{},
		Private: IsPrivate(in.Address),
	}

	for _, rule := range c.rules {
		f, ok := rule.Evaluate(in)
		if !ok {
			continue
		}
		v.Level = v.Level.Raise(f.Level)
		if f.Reason != "" {
			v.Reasons = append(v.Reasons, f.Reason)
		}
		if f.Final {
			break
		}
	}
	return v
}

// Classify is the plain-value form of Evaluate.
func (c *Classifier) Classify(remotePort int, state string, geo *models.GeoRecord, remoteAddress string) (models.RiskLevel, []string) {
	v := c.Evaluate(NewInput(remotePort, state, geo, remoteAddress))
	return v.Level, v.Reasons
}
