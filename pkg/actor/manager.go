package actor

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// registration bundles an actor with its strategy collaborators.
type registration struct {
	actor        *Actor
	behavior     Behavior
	perception   Perception
	conversation Conversation
	attack       AttackConfig
}

// AttackConfig holds the combat thresholds the engine compares rolls
// against when the player attacks this actor.
type AttackConfig struct {
	HitProbability     float64
	CounterProbability float64
	AttackDamage       int
}

// Manager owns every actor. The engine and dispatcher never mutate actor
// internals directly; all mutation flows through the manager's event
// methods. The manager itself is not locked: the engine serializes calls
// under its world mutex.
type Manager struct {
	actors map[string]*registration
	order  []string // registration order; tick order is deterministic

	logger   *slog.Logger
	recorder *telemetry.Recorder
	randFn   func() float64
}

// NewManager creates an empty actor manager.
func NewManager(logger *slog.Logger, recorder *telemetry.Recorder) *Manager {
	return &Manager{
		actors:   make(map[string]*registration),
		logger:   logger,
		recorder: recorder,
		randFn:   rand.Float64,
	}
}

// WithRand overrides the tick RNG, for deterministic tests. Returns the
// Manager for method chaining.
func (m *Manager) WithRand(fn func() float64) *Manager {
	m.randFn = fn
	return m
}

// Register adds an actor with its strategies. A nil perception defaults
// to same-room perception.
func (m *Manager) Register(a *Actor, b Behavior, p Perception, c Conversation, attack AttackConfig) {
	if p == nil {
		p = SameRoomPerception{}
	}
	m.actors[a.ID] = &registration{
		actor:        a,
		behavior:     b,
		perception:   p,
		conversation: c,
		attack:       attack,
	}
	m.order = append(m.order, a.ID)
}

// Get returns a registered actor.
func (m *Manager) Get(id string) (*Actor, bool) {
	reg, ok := m.actors[id]
	if !ok {
		return nil, false
	}
	return reg.actor, true
}

// FindByName matches an actor by ID or name, case-insensitively.
func (m *Manager) FindByName(name string) (*Actor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, id := range m.order {
		a := m.actors[id].actor
		if strings.ToLower(a.ID) == name || strings.ToLower(a.Name) == name {
			return a, true
		}
	}
	return nil, false
}

// InRoom returns the actors currently located in the room, in
// registration order. Dead actors are excluded; their remove event
// already cleared their location.
func (m *Manager) InRoom(roomID string) []*Actor {
	var out []*Actor
	for _, id := range m.order {
		a := m.actors[id].actor
		if a.Location == roomID && !a.IsDead() {
			out = append(out, a)
		}
	}
	return out
}

// BlockerAt returns the conscious passage-blocking actor in the room, if
// any.
func (m *Manager) BlockerAt(roomID string) (*Actor, bool) {
	for _, id := range m.order {
		a := m.actors[id].actor
		if a.Location == roomID && a.IsConscious() && a.BlocksPassage {
			return a, true
		}
	}
	return nil, false
}

// Tick advances every tick-enabled actor once, in registration order,
// and returns the player-visible messages the behaviors produced. The
// caller must hold the world's critical section: ticks run between
// command executions, never during one.
func (m *Manager) Tick(w *world.World) []string {
	var messages []string
	for _, id := range m.order {
		reg := m.actors[id]
		a := reg.actor
		if !a.TickEnabled || reg.behavior == nil {
			continue
		}

		roll := m.randFn()
		perceives := reg.perception.CanPerceive(a, w.Player.Room)
		msgs := reg.behavior.OnTick(a, w, roll, perceives)
		messages = append(messages, msgs...)

		m.recorder.Record(telemetry.EventActorTick, map[string]interface{}{
			"actor_id": a.ID,
			"location": a.Location,
			"state":    string(a.State),
		})
	}
	return messages
}

// PlayerAttack resolves the player attacking an actor. hitRoll and
// counterRoll are [0,1) values compared against the actor's configured
// thresholds, keeping combat deterministic under test. The returned
// counterattacked flag tells the engine to apply its player-wound rule.
func (m *Manager) PlayerAttack(actorID string, damage int, hitRoll, counterRoll float64, w *world.World) (messages []string, counterattacked bool, err error) {
	reg, ok := m.actors[actorID]
	if !ok {
		return nil, false, fmt.Errorf("unknown actor %q", actorID)
	}
	a := reg.actor

	if a.IsDead() {
		return []string{fmt.Sprintf("The %s is already dead.", a.Name)}, false, nil
	}
	if !a.IsConscious() {
		// Attacking a knocked-out actor finishes it.
		m.killActor(reg, w)
		return []string{fmt.Sprintf("You dispatch the unconscious %s.", a.Name)}, false, nil
	}

	if hitRoll >= reg.attack.HitProbability {
		messages = append(messages, fmt.Sprintf("You swing at the %s and miss.", a.Name))
	} else {
		if damage <= 0 {
			damage = 1
		}
		dropped := a.OnDamage(damage)
		for _, objID := range dropped {
			if o, ok := w.Object(objID); ok {
				o.Location = a.Location
				o.Visible = true
				if room, ok := w.Room(a.Location); ok {
					room.AddObject(objID)
				}
			}
		}
		if a.IsConscious() {
			messages = append(messages, fmt.Sprintf("You wound the %s.", a.Name))
		} else {
			messages = append(messages, fmt.Sprintf("The %s collapses, unconscious.", a.Name))
		}
	}

	if a.IsConscious() && a.Fighting && counterRoll < reg.attack.CounterProbability {
		counterattacked = true
		messages = append(messages, fmt.Sprintf("The %s strikes back at you!", a.Name))
	}
	return messages, counterattacked, nil
}

// Kill drives an actor through the death event, dropping its carried
// objects into its room.
func (m *Manager) Kill(actorID string, w *world.World) error {
	reg, ok := m.actors[actorID]
	if !ok {
		return fmt.Errorf("unknown actor %q", actorID)
	}
	m.killActor(reg, w)
	return nil
}

func (m *Manager) killActor(reg *registration, w *world.World) {
	a := reg.actor
	if a.IsDead() {
		return
	}

	for _, objID := range a.Inventory {
		if o, ok := w.Object(objID); ok {
			o.Location = a.Location
			o.Visible = true
			if room, ok := w.Room(a.Location); ok {
				room.AddObject(objID)
			}
		}
	}
	a.Inventory = nil
	a.OnDeath()
	a.Remove()

	m.recorder.Record(telemetry.EventActorDeath, map[string]interface{}{"actor_id": a.ID})
	if m.logger != nil {
		m.logger.Info("Actor died", "actor_id", a.ID)
	}
}

// OfferGift routes a player gift to the actor's conversation strategy.
func (m *Manager) OfferGift(actorID string, obj *world.GameObject, w *world.World) (bool, string, error) {
	reg, ok := m.actors[actorID]
	if !ok {
		return false, "", fmt.Errorf("unknown actor %q", actorID)
	}
	if reg.conversation == nil {
		return false, fmt.Sprintf("The %s ignores your offer.", reg.actor.Name), nil
	}
	accepted, msg := reg.conversation.OnGift(reg.actor, w, obj)
	return accepted, msg, nil
}

// ActorEvent implements the Events interface the strategies notify
// through, forwarding to telemetry.
func (m *Manager) ActorEvent(eventType string, actorID string, data map[string]interface{}) {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["actor_id"] = actorID

	var t telemetry.EventType
	switch eventType {
	case "theft":
		t = telemetry.EventActorTheft
	case "deposit":
		t = telemetry.EventActorDeposit
	case "death":
		t = telemetry.EventActorDeath
	case "revival":
		t = telemetry.EventActorRevival
	case "gift_accepted":
		t = telemetry.EventActorGiftAccepted
	default:
		return
	}
	m.recorder.Record(t, data)
}

// Snapshot captures every actor's mutable state.
func (m *Manager) Snapshot() map[string]world.ActorState {
	out := make(map[string]world.ActorState, len(m.actors))
	for id, reg := range m.actors {
		a := reg.actor
		out[id] = world.ActorState{
			Location:      a.Location,
			Inventory:     append([]string(nil), a.Inventory...),
			Strength:      a.Strength,
			State:         string(a.State),
			Fighting:      a.Fighting,
			BlocksPassage: a.BlocksPassage,
			TickEnabled:   a.TickEnabled,
			Engrossed:     a.Engrossed,
		}
	}
	return out
}

// Restore applies captured actor states back onto registered actors.
func (m *Manager) Restore(states map[string]world.ActorState) {
	for id, st := range states {
		reg, ok := m.actors[id]
		if !ok {
			continue
		}
		a := reg.actor
		a.Location = st.Location
		a.Inventory = append([]string(nil), st.Inventory...)
		a.Strength = st.Strength
		a.State = State(st.State)
		a.Fighting = st.Fighting
		a.BlocksPassage = st.BlocksPassage
		a.TickEnabled = st.TickEnabled
		a.Engrossed = st.Engrossed
		a.syncFlags()
	}
}
