// Package stats derives display-only aggregates from a loaded history page.
package stats

import (
	"sort"

	"github.com/runnerr0/histview/internal/api"
)

// TopN is how many domains are kept.
const TopN = 20

// State distinguishes a result that was never computed from one computed
// over input with nothing to count.
type State int

const (
	Pending State = iota
	Empty
	Ready
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Empty:
		return "empty"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// DomainCount is the number of entries seen for one domain.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// DomainStats is the output of Aggregate. The zero value is Pending.
type DomainStats struct {
	State State
	Top   []DomainCount
}

// Aggregate counts entries per domain, most frequent first. Entries with no
// domain are skipped. Ties keep first-seen order. At most TopN are returned.
func Aggregate(entries []api.HistoryEntry) DomainStats {
	index := make(map[string]int)
	var counts []DomainCount

	for _, e := range entries {
		if e.Domain == "" {
			continue
		}
		i, ok := index[e.Domain]
		if !ok {
			i = len(counts)
			index[e.Domain] = i
			counts = append(counts, DomainCount{Domain: e.Domain})
		}
		counts[i].Count++
	}

	if len(counts) == 0 {
		return DomainStats{State: Empty}
	}

	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	if len(counts) > TopN {
		counts = counts[:TopN]
	}
	return DomainStats{State: Ready, Top: counts}
}

// Total is the sum of the kept counts.
func (s DomainStats) Total() int {
	n := 0
	for _, d := range s.Top {
		n += d.Count
	}
	return n
}
