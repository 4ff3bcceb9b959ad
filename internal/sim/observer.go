package sim

import "time"

// Event types recorded by the simulator.
const (
	EventRelayDeployed = "relay_deployed"
	EventLinkDown      = "link_down"
	EventLinkRestored  = "link_restored"
)

// Event is a notable change in the relay chain.
type Event struct {
	Tick      int       `json:"tick"`
	Type      string    `json:"type"`
	RelayID   int       `json:"relay_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Events returns a copy of all recorded events.
func (s *Simulator) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// EventAt returns the event at idx.
func (s *Simulator) EventAt(idx int) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.events) {
		return Event{}, false
	}
	return s.events[idx], true
}

func (s *Simulator) logEvent(tick int, t string, relayID int, details string, ts time.Time) {
	s.events = append(s.events, Event{Tick: tick, Type: t, RelayID: relayID, Details: details, Timestamp: ts})
}
