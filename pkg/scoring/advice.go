package scoring

import (
	"fmt"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

const (
	manyWarnings      = 3
	lowExternalSecure = 0.3
	dominantCountry   = 0.5
	topProcesses      = 3
	portScanThreshold = 10
)

func recommendations(s models.SecuritySummary, conns []models.ClassifiedConnection) []string {
	if s.Total == 0 {
		return []string{"No active connections detected"}
	}

	var recs []string
	if s.Threats > 0 {
		recs = append(recs, fmt.Sprintf("CRITICAL: %d threat(s) detected. Review suspicious connections immediately.", s.Threats))
	}
	if s.Warnings > manyWarnings {
		recs = append(recs, fmt.Sprintf("WARNING: %d connections flagged. Consider reviewing firewall rules.", s.Warnings))
	}
	if s.SuspiciousPorts > 0 {
		recs = append(recs, fmt.Sprintf("%d connection(s) using suspicious ports. Verify these are legitimate.", s.SuspiciousPorts))
	}

	external := 0
	for _, c := range conns {
		if !c.IsPrivate {
			external++
		}
	}
	if external > 0 && float64(s.Secure)/float64(external) < lowExternalSecure {
		recs = append(recs, "Few secure connections detected. Consider using HTTPS/SSL where possible.")
	}

	if top := TopCountries(conns, 1); len(top) == 1 && float64(top[0].Count) > float64(len(conns))*dominantCountry {
		recs = append(recs, fmt.Sprintf("Many connections to %s. Verify this is expected behavior.", top[0].Country))
	}

	if len(recs) == 0 {
		if s.Score >= 90 {
			return []string{"Excellent security posture! Keep monitoring regularly."}
		}
		return []string{"No critical issues detected. Continue monitoring."}
	}
	return recs
}

func riskFactors(conns []models.ClassifiedConnection) []string {
	factors := []string{}

	procs := newTally()
	for _, c := range conns {
		if name := c.ProcessName(); name != models.UnknownProcess {
			procs.add(name)
		}
	}
	for _, p := range procs.top(topProcesses) {
		factors = append(factors, fmt.Sprintf("%d connections from %s", p.count, p.key))
	}

	var order []string
	ports := make(map[string]map[int]struct{})
	for _, c := range conns {
		if c.IsPrivate || c.Remote == nil {
			continue
		}
		ip := c.Remote.Address
		if _, ok := ports[ip]; !ok {
			ports[ip] = make(map[int]struct{})
			order = append(order, ip)
		}
		ports[ip][c.Remote.Port] = struct{}{}
	}
	for _, ip := range order {
		if n := len(ports[ip]); n > portScanThreshold {
			factors = append(factors, fmt.Sprintf("%s connected to %d different ports", ip, n))
		}
	}
	return factors
}
