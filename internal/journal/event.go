// Package journal records journey events for live output, log export,
// and replay.
package journal

import "time"

// EventType classifies a journey event.
type EventType string

const (
	EventRunStarted EventType = "run_started"
	EventJourney    EventType = "journey"
	EventMove       EventType = "move"
	EventDetection  EventType = "detection"
	EventEncounter  EventType = "encounter"
	EventSalvage    EventType = "salvage"
	EventEscape     EventType = "escape"
	EventExtraction EventType = "extraction"
	EventMIA        EventType = "mia"
)

// EventRow is one journey event record.
type EventRow struct {
	RunID     string    `json:"run_id"` // TAG
	Tier      int       `json:"tier"`   // TAG
	Type      EventType `json:"type"`
	Hex       string    `json:"hex,omitempty"`
	Detection float64   `json:"detection"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// Writer is an output sink for journey events.
type Writer interface {
	Write(EventRow) error
}

// Optional: writers can also support batch mode.
type batchWriter interface {
	WriteBatch([]EventRow) error
}
