// Package engine owns the world graph and applies parsed commands to it:
// verb dispatch, visibility and darkness rules, container and scoring
// semantics, disambiguation/autocorrect hook points, and the tick clock
// driving the actor subsystem.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/cwhitt/adventure-engine/pkg/actor"
	"github.com/cwhitt/adventure-engine/pkg/command"
	"github.com/cwhitt/adventure-engine/pkg/dispatcher"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/resolver"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// GameStatus is the terminal-condition state of a session.
type GameStatus string

const (
	StatusPlaying GameStatus = "playing"
	StatusWon     GameStatus = "won"
	StatusLost    GameStatus = "lost"
)

// GrueThreshold is the number of darkness-eligible actions in the dark
// before the grue strikes.
const GrueThreshold = 3

// Output type tags for CommandOutput.
const (
	OutputAction   = "action"
	OutputError    = "error"
	OutputInfo     = "info"
	OutputQuestion = "question"
	OutputDeath    = "death"
)

// CommandOutput is the player-facing result of one executed command.
type CommandOutput struct {
	Messages []string `json:"messages"`
	Success  bool     `json:"success"`
	Type     string   `json:"type"`
}

// DisambiguationCallback is the async UI hook for ambiguous resolution.
// It suspends the in-flight command; a nil selection means the player
// cancelled, which leaves world state untouched and is not an error.
type DisambiguationCallback func(ctx context.Context, candidates []resolver.Candidate, prompt string) (*resolver.Candidate, error)

// AutocorrectCallback is the async UI hook confirming a fuzzy correction
// ("take lmap" -> "Did you mean the lamp?").
type AutocorrectCallback func(ctx context.Context, original, suggestion string, confidence float64) (bool, error)

// Engine applies commands to a world. All world mutation happens inside
// its mutex: command lines and actor ticks are serialized, so a tick can
// never interleave with a command's state transition.
type Engine struct {
	mu sync.Mutex

	world    *world.World
	lex      *lexicon.Lexicon
	cfg      lexicon.Config
	parser   *command.Parser
	resolver *resolver.Resolver
	dispatch *dispatcher.Dispatcher
	actors   *actor.Manager
	handlers map[string]handlerFunc

	logger   *slog.Logger
	recorder *telemetry.Recorder
	randFn   func() float64

	status        GameStatus
	darknessTurns int
	scored        map[string]bool
	outputLog     []string

	disambiguate DisambiguationCallback
	autocorrect  AutocorrectCallback

	autoTickStop chan struct{}
}

// handlerFunc applies one verb. The engine's mutex is held.
type handlerFunc func(ctx context.Context, cmd command.ParsedCommand) CommandOutput

// New creates an engine over a validated world.
func New(w *world.World, lex *lexicon.Lexicon, cfg lexicon.Config, logger *slog.Logger, recorder *telemetry.Recorder) *Engine {
	e := &Engine{
		world:    w,
		lex:      lex,
		cfg:      cfg,
		parser:   command.NewParser(lex, cfg, recorder),
		resolver: resolver.New(lex, cfg, recorder),
		dispatch: dispatcher.New(logger, recorder),
		actors:   actor.NewManager(logger, recorder),
		logger:   logger,
		recorder: recorder,
		randFn:   rand.Float64,
		status:   StatusPlaying,
		scored:   make(map[string]bool),
	}
	e.handlers = e.buildHandlers()
	if room := w.CurrentRoom(); room != nil {
		room.Visited = true
	}
	return e
}

// WithRand overrides the combat RNG, for deterministic tests. Returns
// the Engine for method chaining.
func (e *Engine) WithRand(fn func() float64) *Engine {
	e.randFn = fn
	return e
}

// Actors exposes the actor manager for registration at game start.
func (e *Engine) Actors() *actor.Manager {
	return e.actors
}

// World exposes the world repository. Callers must not mutate it while
// commands may be in flight.
func (e *Engine) World() *world.World {
	return e.world
}

// Recorder exposes the telemetry recorder, for analytics summaries.
func (e *Engine) Recorder() *telemetry.Recorder {
	return e.recorder
}

// Status returns the session's terminal-condition state.
func (e *Engine) Status() GameStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// SetDisambiguationCallback installs the UI hook for ambiguous results.
func (e *Engine) SetDisambiguationCallback(cb DisambiguationCallback) {
	e.disambiguate = cb
}

// SetAutocorrectCallback installs the UI hook for fuzzy corrections.
func (e *Engine) SetAutocorrectCallback(cb AutocorrectCallback) {
	e.autocorrect = cb
}

// OutputLog returns the append-only output message stream.
func (e *Engine) OutputLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.outputLog...)
}

// ExecuteLine splits a raw input line into sub-commands, parses each,
// and dispatches them in written order under the given policy. The whole
// line runs inside the engine's critical section.
func (e *Engine) ExecuteLine(ctx context.Context, line string, policy dispatcher.Policy) *dispatcher.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	split := command.Split(line, e.lex.Separators)
	if split.IsMultiCommand {
		e.recorder.Record(telemetry.EventMultiCommandSplit, map[string]interface{}{
			"input":    line,
			"segments": split.Commands,
			"count":    len(split.Commands),
		})
	}

	cmds := make([]command.ParsedCommand, 0, len(split.Commands))
	for _, raw := range split.Commands {
		cmds = append(cmds, e.parser.Parse(raw))
	}
	if len(cmds) == 0 {
		cmds = append(cmds, e.parser.Parse(line))
	}

	report := e.dispatch.Execute(ctx, cmds, e.executeLocked, policy)
	for _, res := range report.Results {
		e.outputLog = append(e.outputLog, res.Output.Messages...)
	}
	return report
}

// ExecuteCommand applies a single parsed command, for callers that parse
// themselves. Takes the engine's critical section.
func (e *Engine) ExecuteCommand(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyCommand(ctx, cmd)
}

// executeLocked adapts applyCommand to the dispatcher's executor shape.
// The mutex is already held by ExecuteLine.
func (e *Engine) executeLocked(ctx context.Context, cmd command.ParsedCommand) (dispatcher.Output, error) {
	out := e.applyCommand(ctx, cmd)
	return dispatcher.Output{Messages: out.Messages, Success: out.Success}, nil
}

// applyCommand is the single entry point for state transitions. Mutex
// must be held.
func (e *Engine) applyCommand(ctx context.Context, cmd command.ParsedCommand) CommandOutput {
	if e.status == StatusLost {
		return CommandOutput{
			Messages: []string{"The game is over. Restore a saved game or restart to continue."},
			Success:  false,
			Type:     OutputError,
		}
	}
	if e.status == StatusWon {
		return CommandOutput{
			Messages: []string{"You have already won. Restart to play again."},
			Success:  false,
			Type:     OutputInfo,
		}
	}

	if !cmd.IsValid {
		msgs := []string{cmd.ErrorMessage}
		if len(cmd.Suggestions) > 0 {
			msgs = append(msgs, "Did you mean: "+joinQuoted(cmd.Suggestions)+"?")
		}
		return CommandOutput{Messages: msgs, Success: false, Type: OutputError}
	}

	e.world.Player.Moves++

	if out, dead := e.checkDarkness(cmd.Verb); dead {
		return out
	}

	handler, ok := e.handlers[cmd.Verb]
	if !ok {
		return CommandOutput{
			Messages: []string{"You can't do that here."},
			Success:  false,
			Type:     OutputError,
		}
	}
	return handler(ctx, cmd)
}

// darknessEligible lists the verbs that count against the grue when
// performed in the dark. The check runs on every such action, not just
// movement.
var darknessEligible = map[string]bool{
	lexicon.VerbLook:      true,
	lexicon.VerbMove:      true,
	lexicon.VerbInventory: true,
	lexicon.VerbTake:      true,
	lexicon.VerbExamine:   true,
	lexicon.VerbOpen:      true,
	lexicon.VerbClose:     true,
}

// checkDarkness advances the grue counter for darkness-eligible actions
// in an unlit dark room and ends the game at the threshold. Any action
// with light available resets the counter.
func (e *Engine) checkDarkness(verb string) (CommandOutput, bool) {
	if !e.inDarkness() {
		e.darknessTurns = 0
		return CommandOutput{}, false
	}
	if !darknessEligible[verb] {
		return CommandOutput{}, false
	}

	e.darknessTurns++
	if e.darknessTurns >= GrueThreshold {
		e.status = StatusLost
		e.world.Player.Alive = false
		if e.logger != nil {
			e.logger.Info("Player eaten by grue", "turns_in_dark", e.darknessTurns)
		}
		return CommandOutput{
			Messages: []string{"Oh, no! You have walked into the slavering fangs of a lurking grue!", "**** You have died ****"},
			Success:  false,
			Type:     OutputDeath,
		}, true
	}
	return CommandOutput{}, false
}

// inDarkness reports whether the player is in a dark room without an
// active light source.
func (e *Engine) inDarkness() bool {
	room := e.world.CurrentRoom()
	if room == nil || !room.Dark {
		return false
	}
	return !e.hasActiveLight()
}

// hasActiveLight checks the inventory and the room for a lit light
// source.
func (e *Engine) hasActiveLight() bool {
	for _, o := range e.world.InventoryObjects() {
		if o.Properties.Lightable && o.Properties.Lit {
			return true
		}
	}
	room := e.world.CurrentRoom()
	if room == nil {
		return false
	}
	for _, id := range room.Objects {
		if o, ok := e.world.Object(id); ok && o.Properties.Lightable && o.Properties.Lit {
			return true
		}
	}
	return false
}

// Tick advances the actor subsystem once, between commands. Player-
// visible messages are appended to the output log and returned.
func (e *Engine) Tick() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPlaying {
		return nil
	}
	msgs := e.actors.Tick(e.world)
	e.outputLog = append(e.outputLog, msgs...)
	return msgs
}

// StartAutoTick runs Tick on a timer until StopAutoTick. Each tick takes
// the engine mutex, so it serializes against command lines.
func (e *Engine) StartAutoTick(interval time.Duration) {
	if e.autoTickStop != nil {
		return
	}
	stop := make(chan struct{})
	e.autoTickStop = stop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-stop:
				return
			}
		}
	}()
}

// StopAutoTick halts the auto-tick timer.
func (e *Engine) StopAutoTick() {
	if e.autoTickStop != nil {
		close(e.autoTickStop)
		e.autoTickStop = nil
	}
}

// Snapshot captures the session's full mutable state.
func (e *Engine) Snapshot() *world.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.world.Capture()
	snap.Scored = sortedKeys(e.scored)
	snap.DarknessTurns = e.darknessTurns
	snap.Status = string(e.status)
	snap.Actors = e.actors.Snapshot()
	return snap
}

// RestoreSnapshot applies a snapshot back onto the session.
func (e *Engine) RestoreSnapshot(snap *world.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.world.Restore(snap)
	e.scored = make(map[string]bool, len(snap.Scored))
	for _, id := range snap.Scored {
		e.scored[id] = true
	}
	e.darknessTurns = snap.DarknessTurns
	if snap.Status != "" {
		e.status = GameStatus(snap.Status)
	} else {
		e.status = StatusPlaying
	}
	e.actors.Restore(snap.Actors)
}
