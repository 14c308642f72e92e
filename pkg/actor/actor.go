// Package actor implements the autonomous NPC subsystem: per-actor
// finite state machines for consciousness and combat, strategy-object
// composition for behavior/perception/conversation, and the manager that
// drives them from ticks and game events.
package actor

// State is an actor's consciousness state.
type State string

const (
	StateConscious   State = "conscious"
	StateUnconscious State = "unconscious"
	StateDead        State = "dead"
)

// Actor is a long-lived NPC. All state-mutating methods are safe against
// repeated invocation in a terminal state: damaging a dead actor is a
// no-op, not an error. The Flags map mirrors the typed fields and is
// resynchronized on every transition.
type Actor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"` // empty = removed from the world
	Inventory []string `json:"inventory,omitempty"`
	Weapon    string   `json:"weapon,omitempty"` // wielded object ID, dropped on knockout

	Strength      int   `json:"strength"`
	State         State `json:"state"`
	Fighting      bool  `json:"fighting"`
	BlocksPassage bool  `json:"blocks_passage"`
	TickEnabled   bool  `json:"tick_enabled"`
	Engrossed     bool  `json:"engrossed"`

	Flags map[string]interface{} `json:"flags,omitempty"`

	// Initial combat posture, restored on revival.
	initialFighting bool
	initialBlocks   bool
}

// NewActor creates a conscious, ticking actor.
func NewActor(id, name, location string, strength int) *Actor {
	a := &Actor{
		ID:          id,
		Name:        name,
		Location:    location,
		Strength:    strength,
		State:       StateConscious,
		TickEnabled: true,
	}
	a.syncFlags()
	return a
}

// WithWeapon arms the actor. Returns the Actor for method chaining.
func (a *Actor) WithWeapon(objectID string) *Actor {
	a.Weapon = objectID
	a.addItem(objectID)
	a.syncFlags()
	return a
}

// WithCombatPosture sets the fighting and passage-blocking flags, also
// recorded as the posture revival restores. Returns the Actor for
// method chaining.
func (a *Actor) WithCombatPosture(fighting, blocksPassage bool) *Actor {
	a.Fighting = fighting
	a.BlocksPassage = blocksPassage
	a.initialFighting = fighting
	a.initialBlocks = blocksPassage
	a.syncFlags()
	return a
}

// IsConscious reports whether the actor is awake and acting.
func (a *Actor) IsConscious() bool {
	return a.State == StateConscious
}

// IsDead reports whether the actor is permanently gone.
func (a *Actor) IsDead() bool {
	return a.State == StateDead
}

// OnDamage applies damage. Strength never increases here and never goes
// below zero. Crossing from positive strength to zero knocks the actor
// unconscious: ticking stops, the wielded weapon is dropped, and the
// passage-blocking flag clears. The returned slice holds object IDs
// dropped by the transition, for the caller to place in the room.
func (a *Actor) OnDamage(n int) []string {
	if a.State == StateDead || n <= 0 {
		return nil
	}

	wasConscious := a.Strength > 0
	a.Strength -= n
	if a.Strength < 0 {
		a.Strength = 0
	}

	var dropped []string
	if wasConscious && a.Strength == 0 && a.State == StateConscious {
		a.State = StateUnconscious
		a.TickEnabled = false
		a.Fighting = false
		a.BlocksPassage = false
		if a.Weapon != "" {
			dropped = append(dropped, a.Weapon)
			a.removeItem(a.Weapon)
			a.Weapon = ""
		}
	}
	a.syncFlags()
	return dropped
}

// OnDeath drives the actor to the dead state. Distinct from a knockout:
// dead actors never revive. Idempotent.
func (a *Actor) OnDeath() {
	if a.State == StateDead {
		return
	}
	a.Strength = 0
	a.State = StateDead
	a.TickEnabled = false
	a.Fighting = false
	a.BlocksPassage = false
	a.syncFlags()
}

// Revive restores an unconscious actor to consciousness with the given
// strength, re-enabling ticking and the original combat posture. Returns
// false (no-op) for dead or already-conscious actors.
func (a *Actor) Revive(strength int) bool {
	if a.State != StateUnconscious || strength <= 0 {
		return false
	}
	a.Strength = strength
	a.State = StateConscious
	a.TickEnabled = true
	a.Fighting = a.initialFighting
	a.BlocksPassage = a.initialBlocks
	a.syncFlags()
	return true
}

// SetEngrossed marks the actor engrossed (Thief gift flag). Tracked for
// narrative and telemetry purposes; does not affect ticking.
func (a *Actor) SetEngrossed(v bool) {
	a.Engrossed = v
	a.syncFlags()
}

// Remove takes the actor out of the world.
func (a *Actor) Remove() {
	a.Location = ""
	a.syncFlags()
}

// HasItem reports whether the actor carries the object.
func (a *Actor) HasItem(id string) bool {
	for _, o := range a.Inventory {
		if o == id {
			return true
		}
	}
	return false
}

func (a *Actor) addItem(id string) {
	if !a.HasItem(id) {
		a.Inventory = append(a.Inventory, id)
	}
}

func (a *Actor) removeItem(id string) {
	for i, o := range a.Inventory {
		if o == id {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
			return
		}
	}
}

// syncFlags mirrors the typed state into the flag map. Called on every
// transition so external observers always see a consistent bag.
func (a *Actor) syncFlags() {
	if a.Flags == nil {
		a.Flags = make(map[string]interface{})
	}
	a.Flags["strength"] = a.Strength
	a.Flags["actorState"] = string(a.State)
	a.Flags["isFighting"] = a.Fighting
	a.Flags["blocksPassage"] = a.BlocksPassage
	a.Flags["tickEnabled"] = a.TickEnabled
	a.Flags["engrossed"] = a.Engrossed
}
