package slash

import (
	"sync"
	"time"
)

// Outcome is the terminal state of one dispatch.
type Outcome uint8

const (
	// OutcomeMissed means no command matched the event.
	OutcomeMissed Outcome = iota
	// OutcomeHalted means a check returned false.
	OutcomeHalted
	// OutcomeDenied means the permission gate rejected the actor.
	OutcomeDenied
	// OutcomeCompleted means a handler ran and returned nil.
	OutcomeCompleted
	// OutcomeFailed means a handler failed and the failure was reported.
	OutcomeFailed

	outcomeCount
)

var outcomeNames = [outcomeCount]string{"missed", "halted", "denied", "completed", "failed"}

func (o Outcome) String() string {
	if o < outcomeCount {
		return outcomeNames[o]
	}
	return "unknown"
}

// Stats counts dispatch outcomes overall and per command.
type Stats struct {
	mu       sync.Mutex
	since    time.Time
	outcomes [outcomeCount]uint64
	commands map[string]uint64
	failures map[string]uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Since    time.Time         `json:"since"`
	Total    uint64            `json:"total"`
	Outcomes map[string]uint64 `json:"outcomes"`
	Commands map[string]uint64 `json:"commands"`
	Failures map[string]uint64 `json:"failures"`
}

// NewStats creates empty counters.
func NewStats() *Stats {
	return &Stats{
		since:    time.Now(),
		commands: make(map[string]uint64),
		failures: make(map[string]uint64),
	}
}

// Record counts one dispatch. Missed dispatches are not keyed by command so
// arbitrary names cannot grow the map.
func (s *Stats) Record(command string, o Outcome) {
	if o >= outcomeCount {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[o]++
	if o == OutcomeMissed {
		return
	}
	s.commands[command]++
	if o == OutcomeFailed {
		s.failures[command]++
	}
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Since:    s.since,
		Outcomes: make(map[string]uint64, outcomeCount),
		Commands: make(map[string]uint64, len(s.commands)),
		Failures: make(map[string]uint64, len(s.failures)),
	}
	for i, n := range s.outcomes {
		snap.Outcomes[outcomeNames[i]] = n
		snap.Total += n
	}
	for k, v := range s.commands {
		snap.Commands[k] = v
	}
	for k, v := range s.failures {
		snap.Failures[k] = v
	}
	return snap
}

// Restore adds a persisted snapshot to the counters and keeps the earlier
// start time.
func (s *Stats) Restore(snap StatsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !snap.Since.IsZero() && snap.Since.Before(s.since) {
		s.since = snap.Since
	}
	for i, name := range outcomeNames {
		s.outcomes[i] += snap.Outcomes[name]
	}
	for k, v := range snap.Commands {
		s.commands[k] += v
	}
	for k, v := range snap.Failures {
		s.failures[k] += v
	}
}
