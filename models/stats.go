package models

// WardTotals are the raw per-ward counts that analytics are derived from.
type WardTotals struct {
	Categories          map[string]int64
	Statuses            map[Status]int64
	Priority            PriorityCounts
	ResolvedCount       int64
	ResolutionDaysTotal float64
}

type PriorityCounts struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

func (p *PriorityCounts) Add(score float64) {
	switch BucketFor(score) {
	case PriorityHigh:
		p.High++
	case PriorityMedium:
		p.Medium++
	default:
		p.Low++
	}
}
