package rules

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// BlocklistRule flags remote addresses that appear on a known-bad list.
//
// Entries are stored as prefixes: a single IP becomes a /32 (or /128) and CIDR
// entries are kept as written.
//
// Recommended data sources:
//   - IPsum: https://github.com/stamparm/ipsum (level 3+ recommended)
//   - FireHOL: https://iplists.firehol.org/
//   - Tor exit nodes: https://check.torproject.org/torbulkexitlist
type BlocklistRule struct {
	prefixes []netip.Prefix
}

// NewBlocklistRule builds a rule from IP or CIDR strings. Invalid entries are skipped.
func NewBlocklistRule(entries []string) *BlocklistRule {
	r := &BlocklistRule{}
	for _, e := range entries {
		r.Add(e)
	}
	return r
}

// LoadBlocklistRule reads a blocklist file.
//
// Supported formats:
//   - One IP per line
//   - Lines starting with # are ignored
//   - IPsum format: "1.2.3.4\t5" (IP + TAB + count)
//   - CIDR notation (e.g. "1.2.3.0/24")
func LoadBlocklistRule(path string) (*BlocklistRule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening blocklist: %w", err)
	}
	defer file.Close()

	r, err := ReadBlocklist(file)
	if err != nil {
		return nil, fmt.Errorf("reading blocklist %s: %w", path, err)
	}
	return r, nil
}

// ReadBlocklist parses blocklist entries from rd.
func ReadBlocklist(rd io.Reader) (*BlocklistRule, error) {
	r := &BlocklistRule{}
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.Add(strings.Fields(line)[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Add inserts an IP or CIDR entry and reports whether it was valid.
func (r *BlocklistRule) Add(entry string) bool {
	if strings.Contains(entry, "/") {
		p, err := netip.ParsePrefix(entry)
		if err != nil {
			return false
		}
		if p.Addr().Is4In6() && p.Bits() >= 96 {
			p = netip.PrefixFrom(p.Addr().Unmap(), p.Bits()-96)
		}
		r.prefixes = append(r.prefixes, p.Masked())
		return true
	}
	addr, ok := ParseAddr(entry)
	if !ok {
		return false
	}
	r.prefixes = append(r.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	return true
}

// Contains reports whether addr falls inside any listed prefix.
func (r *BlocklistRule) Contains(addr netip.Addr) bool {
	return containedIn(addr, r.prefixes)
}

// Count returns the number of listed prefixes.
func (r *BlocklistRule) Count() int {
	return len(r.prefixes)
}

func (r *BlocklistRule) Name() string {
	return "blocklist"
}

func (r *BlocklistRule) Evaluate(in Input) (Finding, bool) {
	if !r.Contains(in.Address) {
		return Finding{}, false
	}
	return Finding{
		Level:  models.RiskDanger,
		Reason: fmt.Sprintf("Remote address %s is on the blocklist", in.Address),
	}, true
}
