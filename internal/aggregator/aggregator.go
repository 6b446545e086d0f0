package aggregator

import "voice-alerts-go/internal/types"

// Stats are the counters shown on the dispatch dashboard.
type Stats struct {
	Total          int            `json:"total"`
	New            int            `json:"new"`
	OpenHigh       int            `json:"openHigh"`
	OpenMedium     int            `json:"openMedium"`
	OpenGeneral    int            `json:"openGeneral"`
	Resolved       int            `json:"resolved"`
	FalseAlarms    int            `json:"falseAlarms"`
	ResolutionRate float64        `json:"resolutionRate"`
	ByDepartment   map[string]int `json:"byDepartment"`
}

func Summarize(alerts []types.Alert) Stats {
	s := Stats{Total: len(alerts), ByDepartment: map[string]int{}}
	for _, a := range alerts {
		if a.Department != "" {
			s.ByDepartment[a.Department]++
		}
		if a.IsFalseAlarm {
			s.FalseAlarms++
		}
		if a.IsResolved {
			s.Resolved++
			continue
		}
		if !a.IsFalseAlarm {
			s.New++
		}
		switch a.Urgency {
		case types.UrgencyHigh:
			s.OpenHigh++
		case types.UrgencyMedium:
			s.OpenMedium++
		case types.UrgencyGeneral:
			s.OpenGeneral++
		}
	}
	if s.Total > 0 {
		s.ResolutionRate = float64(s.Resolved) / float64(s.Total)
	}
	return s
}
