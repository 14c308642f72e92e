package telemetry

import "time"

// Summary is an analytics aggregation over the persisted event log. All
// figures are derivable from the events alone.
type Summary struct {
	TotalEvents    int               `json:"total_events"`
	CountsByType   map[EventType]int `json:"counts_by_type"`
	ParseAttempts  int               `json:"parse_attempts"`
	ParseSuccesses int               `json:"parse_successes"`
	ParseRate      float64           `json:"parse_rate"`
	MeanDispatchMs float64           `json:"mean_dispatch_ms"`
	ActorEvents    int               `json:"actor_events"`
}

// Summarize aggregates the persisted events into a Summary.
func (r *Recorder) Summarize() Summary {
	events := r.Events()
	s := Summary{CountsByType: make(map[EventType]int)}

	var dispatchTotal time.Duration
	var dispatchCount int

	for _, e := range events {
		s.TotalEvents++
		s.CountsByType[e.Type]++
		switch e.Type {
		case EventParseAttempt:
			s.ParseAttempts++
		case EventParseSuccess:
			s.ParseSuccesses++
		case EventDispatchCompleted:
			if ms, ok := e.Data["duration_ms"].(int64); ok {
				dispatchTotal += time.Duration(ms) * time.Millisecond
				dispatchCount++
			}
		case EventActorTick, EventActorTheft, EventActorDeposit,
			EventActorDeath, EventActorRevival, EventActorGiftAccepted:
			s.ActorEvents++
		}
	}

	if s.ParseAttempts > 0 {
		s.ParseRate = float64(s.ParseSuccesses) / float64(s.ParseAttempts)
	}
	if dispatchCount > 0 {
		s.MeanDispatchMs = float64(dispatchTotal.Milliseconds()) / float64(dispatchCount)
	}
	return s
}
