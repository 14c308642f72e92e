// Package telemetry records the engine's typed event stream: parser
// outcomes, fuzzy matches, disambiguation interactions, dispatcher
// lifecycle and actor lifecycle events. Privacy configuration gates what
// gets recorded; when input collection is disabled, raw text fields are
// omitted entirely, not blanked.
package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// EventType identifies a telemetry event.
type EventType string

const (
	EventParseAttempt EventType = "parse.attempt"
	EventParseSuccess EventType = "parse.success"
	EventParseFailure EventType = "parse.failure"

	EventFuzzyMatch EventType = "fuzzy.match"

	EventAutocorrectSuggested EventType = "autocorrect.suggested"
	EventAutocorrectAccepted  EventType = "autocorrect.accepted"
	EventAutocorrectRejected  EventType = "autocorrect.rejected"

	EventDisambiguationShown     EventType = "disambiguation.shown"
	EventDisambiguationSelected  EventType = "disambiguation.selected"
	EventDisambiguationCancelled EventType = "disambiguation.cancelled"

	EventMultiCommandSplit EventType = "multicommand.split"
	EventOrdinalSelected   EventType = "ordinal.selected"

	EventDispatchStarted          EventType = "dispatch.started"
	EventDispatchCommand          EventType = "dispatch.command"
	EventDispatchEarlyTermination EventType = "dispatch.early_termination"
	EventDispatchCompleted        EventType = "dispatch.completed"

	EventActorTick         EventType = "actor.tick"
	EventActorTheft        EventType = "actor.theft"
	EventActorDeposit      EventType = "actor.deposit"
	EventActorDeath        EventType = "actor.death"
	EventActorRevival      EventType = "actor.revival"
	EventActorGiftAccepted EventType = "actor.gift_accepted"
)

// Event is a single telemetry record.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	GameID    string                 `json:"game_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Privacy controls what the recorder keeps and forwards.
type Privacy struct {
	Enabled      bool // master switch; disabled drops everything
	CollectInput bool // false omits raw player text fields
	Persist      bool // keep events in memory for analytics
	Transmit     bool // forward events to configured sinks
}

// DefaultPrivacy keeps telemetry on with in-memory persistence and no
// transmission.
func DefaultPrivacy() Privacy {
	return Privacy{Enabled: true, CollectInput: true, Persist: true, Transmit: false}
}

// Sink receives events for external delivery (e.g. Redis pub/sub).
type Sink interface {
	Write(event Event) error
}

// rawTextFields are the data keys that carry raw player input. They are
// removed when input collection is disabled.
var rawTextFields = map[string]bool{
	"input":      true,
	"raw_input":  true,
	"phrase":     true,
	"original":   true,
	"suggestion": true,
	"segments":   true,
}

// Recorder applies privacy gating and fans events out to memory and
// sinks. A nil Recorder is valid and records nothing.
type Recorder struct {
	privacy Privacy
	logger  *slog.Logger
	gameID  string

	mu     sync.Mutex
	events []Event
	sinks  []Sink
}

// NewRecorder creates a recorder with the given privacy settings.
func NewRecorder(privacy Privacy, logger *slog.Logger) *Recorder {
	return &Recorder{privacy: privacy, logger: logger}
}

// WithGameID sets the game/session ID stamped onto every event.
// Returns the Recorder for method chaining.
func (r *Recorder) WithGameID(id string) *Recorder {
	if r != nil {
		r.gameID = id
	}
	return r
}

// WithSink adds a delivery sink, used when Transmit is enabled.
// Returns the Recorder for method chaining.
func (r *Recorder) WithSink(s Sink) *Recorder {
	if r != nil {
		r.sinks = append(r.sinks, s)
	}
	return r
}

// Record stamps and stores an event, applying privacy gating. Safe to
// call on a nil Recorder.
func (r *Recorder) Record(t EventType, data map[string]interface{}) {
	if r == nil || !r.privacy.Enabled {
		return
	}

	if !r.privacy.CollectInput && data != nil {
		filtered := make(map[string]interface{}, len(data))
		for k, v := range data {
			if !rawTextFields[k] {
				filtered[k] = v
			}
		}
		data = filtered
	}

	event := Event{
		Type:      t,
		Timestamp: time.Now(),
		GameID:    r.gameID,
		Data:      data,
	}

	r.mu.Lock()
	if r.privacy.Persist {
		r.events = append(r.events, event)
	}
	sinks := r.sinks
	r.mu.Unlock()

	if r.privacy.Transmit {
		for _, s := range sinks {
			if err := s.Write(event); err != nil && r.logger != nil {
				r.logger.Warn("Failed to write telemetry event to sink",
					"event_type", t,
					"error", err)
			}
		}
	}
}

// Events returns a copy of the persisted event log.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
