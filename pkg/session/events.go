package session

import "time"

// EventType names what happened in the loop
type EventType string

const (
	EventStateChanged      EventType = "state_changed"
	EventApprovalRequested EventType = "approval_requested"
	EventApprovalGranted   EventType = "approval_granted"
	EventApprovalDenied    EventType = "approval_denied"
	EventToolStarted       EventType = "tool_started"
	EventToolFinished      EventType = "tool_finished"
	EventToolRejected      EventType = "tool_rejected"
	EventInterrupted       EventType = "interrupted"
)

// Event is one entry in the session's audit trail
type Event struct {
	Type   EventType `json:"type"`
	CallID string    `json:"call_id,omitempty"`
	Tool   string    `json:"tool,omitempty"`
	Detail string    `json:"detail,omitempty"`
	From   State     `json:"from"`
	To     State     `json:"to"`
	Time   time.Time `json:"time"`
}

// Record appends an event. Events are kept after termination.
func (s *Session) Record(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

// Events returns a copy of the event log
func (s *Session) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// EventsOfType returns events of the given type in order
func (s *Session) EventsOfType(t EventType) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
