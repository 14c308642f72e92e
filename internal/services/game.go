package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/storage"
	"github.com/cwhitt/adventure-engine/pkg/actor"
	"github.com/cwhitt/adventure-engine/pkg/engine"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// ActorDef is the on-disk shape of an NPC in a world document. Kind
// selects the behavior strategy; the remaining fields tune it. Zero
// tuning values fall back to the strategy's stock config.
type ActorDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Strength int    `json:"strength"`
	Kind     string `json:"kind"` // "thief" or "troll"

	Weapon        string `json:"weapon,omitempty"`
	Fighting      bool   `json:"fighting,omitempty"`
	BlocksPassage bool   `json:"blocks_passage,omitempty"`

	// Thief tuning.
	StealProbability float64 `json:"steal_probability,omitempty"`
	GiftThreshold    int     `json:"gift_threshold,omitempty"`
	TreasureRoom     string  `json:"treasure_room,omitempty"`
	ReviveStrength   int     `json:"revive_strength,omitempty"`

	// Troll tuning.
	HitProbability     float64 `json:"hit_probability,omitempty"`
	CounterProbability float64 `json:"counter_probability,omitempty"`
	AttackDamage       int     `json:"attack_damage,omitempty"`
	FoodBribe          *bool   `json:"food_bribe,omitempty"`
}

// WorldDocument is a world catalogue plus its NPC roster and display
// name.
type WorldDocument struct {
	Name string `json:"name,omitempty"`
	world.Catalogue
	Actors []ActorDef `json:"actors,omitempty"`
}

// GameService builds engines from stored world documents and session
// snapshots.
type GameService struct {
	storage storage.Storage
	cfg     *config.Config
	lexCfg  lexicon.Config
	logger  *slog.Logger
	sink    telemetry.Sink
}

// NewGameService creates a game service. Lexicon tuning overrides are
// loaded once at startup.
func NewGameService(st storage.Storage, cfg *config.Config, logger *slog.Logger) (*GameService, error) {
	lexCfg := lexicon.DefaultConfig()
	if cfg.LexiconConfig != "" {
		loaded, err := lexicon.LoadConfig(cfg.LexiconConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load lexicon config: %w", err)
		}
		lexCfg = loaded
	}

	return &GameService{
		storage: st,
		cfg:     cfg,
		lexCfg:  lexCfg,
		logger:  logger,
	}, nil
}

// WithSink attaches a telemetry delivery sink used when transmit is
// enabled. Returns the GameService for method chaining.
func (g *GameService) WithSink(s telemetry.Sink) *GameService {
	g.sink = s
	return g
}

// LexiconConfig returns the effective parser tuning.
func (g *GameService) LexiconConfig() lexicon.Config {
	return g.lexCfg
}

// DefaultWorld returns the configured world for sessions created without
// an explicit world.
func (g *GameService) DefaultWorld() string {
	return g.cfg.WorldFile
}

// NewEngine builds a fresh engine for the given world file, with the
// session ID stamped onto telemetry.
func (g *GameService) NewEngine(ctx context.Context, worldFile string, sessionID string) (*engine.Engine, error) {
	raw, err := g.storage.GetWorldCatalogue(ctx, worldFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load world %q: %w", worldFile, err)
	}

	doc, err := LoadDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse world %q: %w", worldFile, err)
	}

	recorder := telemetry.NewRecorder(telemetry.Privacy{
		Enabled:      g.cfg.TelemetryEnabled,
		CollectInput: g.cfg.TelemetryCollectInput,
		Persist:      true,
		Transmit:     g.cfg.TelemetryTransmit,
	}, g.logger).WithGameID(sessionID)
	if g.sink != nil {
		recorder = recorder.WithSink(g.sink)
	}

	return BuildEngine(doc, g.lexCfg, g.logger, recorder)
}

// LoadDocument parses a world document from JSON.
func LoadDocument(raw []byte) (*WorldDocument, error) {
	var doc WorldDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// BuildEngine constructs an engine from a parsed world document: builds
// and validates the world, applies lexicon tuning, and registers the NPC
// roster.
func BuildEngine(doc *WorldDocument, lexCfg lexicon.Config, logger *slog.Logger, recorder *telemetry.Recorder) (*engine.Engine, error) {
	w, err := world.FromCatalogue(&doc.Catalogue)
	if err != nil {
		return nil, fmt.Errorf("invalid world: %w", err)
	}

	lex := lexicon.Default()
	lex.ApplyConfig(lexCfg)

	e := engine.New(w, lex, lexCfg, logger, recorder)
	if err := registerActors(e, doc.Actors, logger); err != nil {
		return nil, err
	}
	return e, nil
}

// RestoreEngine rebuilds an engine for a stored session and applies its
// snapshot.
func (g *GameService) RestoreEngine(ctx context.Context, s *storage.Session) (*engine.Engine, error) {
	e, err := g.NewEngine(ctx, s.WorldFile, s.ID.String())
	if err != nil {
		return nil, err
	}
	if len(s.Snapshot) > 0 {
		snap, err := world.LoadSnapshot(s.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshot for session %s: %w", s.ID, err)
		}
		e.RestoreSnapshot(snap)
	}
	return e, nil
}

// registerActors wires the document's NPC roster into the engine's actor
// manager.
func registerActors(e *engine.Engine, defs []ActorDef, logger *slog.Logger) error {
	mgr := e.Actors()
	for _, def := range defs {
		if def.ID == "" || def.Location == "" {
			return fmt.Errorf("actor definition missing id or location: %+v", def)
		}

		a := actor.NewActor(def.ID, def.Name, def.Location, def.Strength)
		if def.Weapon != "" {
			a.WithWeapon(def.Weapon)
		}
		a.WithCombatPosture(def.Fighting, def.BlocksPassage)

		switch def.Kind {
		case "thief":
			cfg := actor.DefaultThiefConfig()
			if def.StealProbability > 0 {
				cfg.StealProbability = def.StealProbability
			}
			if def.GiftThreshold > 0 {
				cfg.GiftThreshold = def.GiftThreshold
			}
			if def.TreasureRoom != "" {
				cfg.TreasureRoom = def.TreasureRoom
			}
			if def.ReviveStrength > 0 {
				cfg.ReviveStrength = def.ReviveStrength
			}
			thief := actor.NewThief(cfg, mgr)
			mgr.Register(a, thief, nil, thief, actor.AttackConfig{
				HitProbability:     defaultFloat(def.HitProbability, 0.6),
				CounterProbability: defaultFloat(def.CounterProbability, 0.3),
				AttackDamage:       defaultInt(def.AttackDamage, 1),
			})

		case "troll":
			cfg := actor.DefaultTrollConfig()
			if def.HitProbability > 0 {
				cfg.HitProbability = def.HitProbability
			}
			if def.CounterProbability > 0 {
				cfg.CounterProbability = def.CounterProbability
			}
			if def.AttackDamage > 0 {
				cfg.AttackDamage = def.AttackDamage
			}
			if def.FoodBribe != nil {
				cfg.FoodBribe = *def.FoodBribe
			}
			troll := actor.NewTroll(cfg, mgr)
			mgr.Register(a, troll, nil, troll, actor.AttackConfig{
				HitProbability:     cfg.HitProbability,
				CounterProbability: cfg.CounterProbability,
				AttackDamage:       cfg.AttackDamage,
			})

		default:
			return fmt.Errorf("unknown actor kind %q for actor %q", def.Kind, def.ID)
		}

		if logger != nil {
			logger.Debug("Registered actor", "actor_id", def.ID, "kind", def.Kind, "location", def.Location)
		}
	}
	return nil
}

func defaultFloat(v, d float64) float64 {
	if v > 0 {
		return v
	}
	return d
}

func defaultInt(v, d int) int {
	if v > 0 {
		return v
	}
	return d
}
