package telemetry

import (
	"testing"
	"time"
)

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.Record(EventParseAttempt, map[string]interface{}{"input": "look"})
	if got := r.Events(); got != nil {
		t.Errorf("nil recorder should hold no events, got %v", got)
	}
	r.WithGameID("x").WithSink(nil)
}

func TestRecorderDisabled(t *testing.T) {
	r := NewRecorder(Privacy{Enabled: false}, nil)
	r.Record(EventParseAttempt, nil)
	if len(r.Events()) != 0 {
		t.Error("disabled recorder must drop everything")
	}
}

func TestRecorderPersistsAndStamps(t *testing.T) {
	r := NewRecorder(DefaultPrivacy(), nil).WithGameID("game-123")

	before := time.Now()
	r.Record(EventParseSuccess, map[string]interface{}{"input": "take lamp", "verb": "take"})

	events := r.Events()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Type != EventParseSuccess {
		t.Errorf("type = %s", e.Type)
	}
	if e.GameID != "game-123" {
		t.Errorf("game id = %q", e.GameID)
	}
	if e.Timestamp.Before(before) {
		t.Error("timestamp not stamped")
	}
	if e.Data["input"] != "take lamp" {
		t.Errorf("data = %v", e.Data)
	}
}

func TestRecorderOmitsRawTextWhenCollectInputOff(t *testing.T) {
	privacy := DefaultPrivacy()
	privacy.CollectInput = false
	r := NewRecorder(privacy, nil)

	r.Record(EventParseFailure, map[string]interface{}{
		"input":   "tkae lamp",
		"message": "I don't know the word",
		"verb":    "take",
	})

	e := r.Events()[0]
	if _, present := e.Data["input"]; present {
		t.Error("raw input must be omitted, not blanked")
	}
	if e.Data["verb"] != "take" {
		t.Error("non-text fields must survive the privacy filter")
	}
}

func TestRecorderNoPersist(t *testing.T) {
	privacy := DefaultPrivacy()
	privacy.Persist = false
	r := NewRecorder(privacy, nil)
	r.Record(EventParseAttempt, nil)
	if len(r.Events()) != 0 {
		t.Error("persist=false must not keep events")
	}
}

// captureSink records delivered events for assertions.
type captureSink struct {
	events []Event
}

func (s *captureSink) Write(e Event) error {
	s.events = append(s.events, e)
	return nil
}

func TestRecorderTransmit(t *testing.T) {
	sink := &captureSink{}

	privacy := DefaultPrivacy()
	r := NewRecorder(privacy, nil).WithSink(sink)
	r.Record(EventParseAttempt, nil)
	if len(sink.events) != 0 {
		t.Error("transmit=false must not reach sinks")
	}

	privacy.Transmit = true
	r = NewRecorder(privacy, nil).WithSink(sink)
	r.Record(EventParseAttempt, nil)
	if len(sink.events) != 1 {
		t.Errorf("sink received %d events, want 1", len(sink.events))
	}
}

func TestSummarize(t *testing.T) {
	r := NewRecorder(DefaultPrivacy(), nil)

	r.Record(EventParseAttempt, nil)
	r.Record(EventParseSuccess, nil)
	r.Record(EventParseAttempt, nil)
	r.Record(EventParseFailure, nil)
	r.Record(EventActorTick, nil)
	r.Record(EventActorTheft, nil)
	r.Record(EventDispatchCompleted, map[string]interface{}{"duration_ms": int64(10)})
	r.Record(EventDispatchCompleted, map[string]interface{}{"duration_ms": int64(20)})

	s := r.Summarize()
	if s.TotalEvents != 8 {
		t.Errorf("total = %d, want 8", s.TotalEvents)
	}
	if s.ParseAttempts != 2 || s.ParseSuccesses != 1 {
		t.Errorf("parse counts = %d/%d", s.ParseAttempts, s.ParseSuccesses)
	}
	if s.ParseRate != 0.5 {
		t.Errorf("parse rate = %v, want 0.5", s.ParseRate)
	}
	if s.ActorEvents != 2 {
		t.Errorf("actor events = %d, want 2", s.ActorEvents)
	}
	if s.MeanDispatchMs != 15 {
		t.Errorf("mean dispatch = %v, want 15", s.MeanDispatchMs)
	}
	if s.CountsByType[EventParseAttempt] != 2 {
		t.Errorf("counts by type = %v", s.CountsByType)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	r := NewRecorder(DefaultPrivacy(), nil)
	s := r.Summarize()
	if s.TotalEvents != 0 || s.ParseRate != 0 || s.MeanDispatchMs != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}
