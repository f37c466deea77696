package scoring

import (
	"sort"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

// TopCountries returns the n most frequent successfully resolved countries.
// Ties keep the order in which countries were first encountered.
func TopCountries(conns []models.ClassifiedConnection, n int) []models.CountryCount {
	t := newTally()
	for _, c := range conns {
		if c.Geo.OK() && c.Geo.Country != "" {
			t.add(c.Geo.Country)
		}
	}

	top := t.top(n)
	out := make([]models.CountryCount, len(top))
	for i, e := range top {
		out[i] = models.CountryCount{Country: e.key, Count: e.count}
	}
	return out
}

type tallyEntry struct {
	key   string
	count int
}

// tally counts keys while remembering first-seen order.
type tally struct {
	index   map[string]int
	entries []tallyEntry
}

func newTally() *tally {
	return &tally{index: make(map[string]int)}
}

func (t *tally) add(key string) {
	if i, ok := t.index[key]; ok {
		t.entries[i].count++
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, tallyEntry{key: key, count: 1})
}

func (t *tally) top(n int) []tallyEntry {
	sorted := make([]tallyEntry, len(t.entries))
	copy(sorted, t.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].count > sorted[j].count
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
