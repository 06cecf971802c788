package sim

import "sort"

// EventSummary aggregates a captured event log by event type and by block.
// Stats counts what the run did; the summary breaks the chronological log
// down so report and sink consumers can find eviction hotspots without
// re-walking events themselves.
type EventSummary struct {
	Loads         int
	Evictions     int
	Accesses      int
	WriteAccesses int
	SharedTouches int // events on blocks served to more than one tensor

	EvictionsByBlock map[uint64]int
}

// BlockEvictions pairs a block address with how often it was evicted.
type BlockEvictions struct {
	BlockAddr uint64
	Count     int
}

// SummarizeEvents computes aggregate statistics from an event log.
// Safe for nil or empty logs (returns zero-value fields).
func SummarizeEvents(events []Event) *EventSummary {
	summary := &EventSummary{
		EvictionsByBlock: make(map[uint64]int),
	}

	for _, e := range events {
		switch e.Type {
		case EventLoad:
			summary.Loads++
		case EventEvict:
			summary.Evictions++
			summary.EvictionsByBlock[e.BlockAddr]++
		case EventAccess:
			summary.Accesses++
			if e.Write {
				summary.WriteAccesses++
			}
		}
		if len(e.SharedWith) > 0 {
			summary.SharedTouches++
		}
	}

	return summary
}

// TopEvicted returns up to n blocks ordered by eviction count descending.
// Ties break on ascending address so the result is deterministic.
func (es *EventSummary) TopEvicted(n int) []BlockEvictions {
	ranked := make([]BlockEvictions, 0, len(es.EvictionsByBlock))
	for addr, count := range es.EvictionsByBlock {
		ranked = append(ranked, BlockEvictions{BlockAddr: addr, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].BlockAddr < ranked[j].BlockAddr
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
