package actor

import "github.com/cwhitt/adventure-engine/pkg/world"

// Strategy composition per actor: behavior (what it does on a tick),
// perception (what it can react to), and conversation (how it answers
// offers). Interface-implementing collaborators, not a class hierarchy.

// Behavior drives an actor's autonomous action each tick. roll is a
// caller-supplied value in [0,1); given the same roll and state the
// behavior must act identically, which keeps the logic testable without
// a live RNG. perceivesPlayer is the registered Perception's verdict on
// the player's current room: player-directed reactions and announced
// messages hinge on it. Returned strings are player-visible messages.
type Behavior interface {
	OnTick(a *Actor, w *world.World, roll float64, perceivesPlayer bool) []string
}

// Perception decides what an actor can react to.
type Perception interface {
	// CanPerceive reports whether the actor perceives activity in the
	// given room.
	CanPerceive(a *Actor, roomID string) bool
}

// Conversation handles items offered to the actor.
type Conversation interface {
	// OnGift is called when the player offers an object. The object has
	// already been resolved; value is its point value (0 for mundane
	// items). Returns whether the gift was accepted and a player-facing
	// message.
	OnGift(a *Actor, w *world.World, obj *world.GameObject) (accepted bool, msg string)
}

// SameRoomPerception is the standard perception model: an actor reacts
// only to activity in its own room. No line of sight, no distance.
type SameRoomPerception struct{}

func (SameRoomPerception) CanPerceive(a *Actor, roomID string) bool {
	return a.Location != "" && a.Location == roomID
}
