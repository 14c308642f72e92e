package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/pkg/engine"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/resolver"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// interaction is an in-flight resolution question the engine has
// suspended a command on. Exactly one reply must be sent.
type interaction struct {
	// Disambiguation fields.
	Candidates []resolver.Candidate
	Prompt     string

	// Autocorrect fields.
	Original   string
	Suggestion string
	Confidence float64

	Autocorrect bool
	reply       chan interactionReply
}

type interactionReply struct {
	candidate *resolver.Candidate
	accepted  bool
}

// Session wraps a local engine for the console. Engine callbacks are
// bridged onto the Interactions channel so the UI can suspend a command
// on a modal: the executing goroutine blocks on the reply channel while
// the UI keeps rendering.
type Session struct {
	Engine       *engine.Engine
	WorldName    string
	Interactions chan *interaction
}

func newSession(cfg *config.Config, logger *slog.Logger, entry worldEntry) (*Session, error) {
	doc, err := loadWorld(entry.Path)
	if err != nil {
		return nil, err
	}

	lexCfg := lexicon.DefaultConfig()
	if cfg.LexiconConfig != "" {
		loaded, err := lexicon.LoadConfig(cfg.LexiconConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load lexicon config: %w", err)
		}
		lexCfg = loaded
	}

	recorder := telemetry.NewRecorder(telemetry.Privacy{
		Enabled:      cfg.TelemetryEnabled,
		CollectInput: cfg.TelemetryCollectInput,
		Persist:      true,
	}, logger).WithGameID(uuid.NewString())

	e, err := services.BuildEngine(doc, lexCfg, logger, recorder)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Engine:       e,
		WorldName:    entry.Name,
		Interactions: make(chan *interaction),
	}

	e.SetDisambiguationCallback(func(ctx context.Context, candidates []resolver.Candidate, prompt string) (*resolver.Candidate, error) {
		req := &interaction{
			Candidates: candidates,
			Prompt:     prompt,
			reply:      make(chan interactionReply),
		}
		select {
		case s.Interactions <- req:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		select {
		case rep := <-req.reply:
			return rep.candidate, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	e.SetAutocorrectCallback(func(ctx context.Context, original, suggestion string, confidence float64) (bool, error) {
		req := &interaction{
			Original:    original,
			Suggestion:  suggestion,
			Confidence:  confidence,
			Autocorrect: true,
			reply:       make(chan interactionReply),
		}
		select {
		case s.Interactions <- req:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		select {
		case rep := <-req.reply:
			return rep.accepted, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	})

	return s, nil
}

// SaveTo writes the session snapshot to a file.
func (s *Session) SaveTo(path string) error {
	data, err := json.MarshalIndent(s.Engine.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	return nil
}

// RestoreFrom applies a saved snapshot file onto the session.
func (s *Session) RestoreFrom(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read save file: %w", err)
	}
	snap, err := world.LoadSnapshot(data)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	s.Engine.RestoreSnapshot(snap)
	return nil
}
