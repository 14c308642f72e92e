package actor

import (
	"fmt"
	"sort"

	"github.com/cwhitt/adventure-engine/pkg/world"
)

// ThiefConfig tunes the thief's behavior.
type ThiefConfig struct {
	StealProbability float64 // chance per perceiving tick of a theft attempt
	GiftThreshold    int     // minimum gift value that leaves him engrossed
	TreasureRoom     string  // room where he stashes loot
	ReviveStrength   int     // strength restored when a gift revives him
}

// DefaultThiefConfig returns the stock tuning.
func DefaultThiefConfig() ThiefConfig {
	return ThiefConfig{
		StealProbability: 0.4,
		GiftThreshold:    5,
		ReviveStrength:   2,
	}
}

// Thief is the wandering, stealing NPC. On a tick he steals a visible
// treasure when he shares a room with one, deposits loot when he reaches
// his treasure room, and otherwise wanders. Stolen objects become
// invisible (not hidden): they still exist, just out of the player's
// perception until recovered.
type Thief struct {
	Config ThiefConfig
	events Events
}

// Events receives actor lifecycle notifications (theft, deposit, death,
// revival, gift). The manager wires itself in; a nil Events drops them.
type Events interface {
	ActorEvent(eventType string, actorID string, data map[string]interface{})
}

// NewThief creates a thief strategy.
func NewThief(cfg ThiefConfig, events Events) *Thief {
	return &Thief{Config: cfg, events: events}
}

// OnTick implements Behavior.
func (t *Thief) OnTick(a *Actor, w *world.World, roll float64, perceivesPlayer bool) []string {
	if !a.IsConscious() || a.Location == "" {
		return nil
	}

	// Stash first when standing in the treasure room with loot.
	if t.Config.TreasureRoom != "" && a.Location == t.Config.TreasureRoom && len(a.Inventory) > 0 {
		return t.deposit(a, w)
	}

	if target := t.stealTarget(a, w, perceivesPlayer); target != nil && roll < t.Config.StealProbability {
		return t.steal(a, w, target, perceivesPlayer)
	}

	return t.wander(a, w, roll, perceivesPlayer)
}

// stealTarget picks the most valuable visible treasure in the thief's
// room or, when he perceives the player, the player's inventory.
func (t *Thief) stealTarget(a *Actor, w *world.World, perceivesPlayer bool) *world.GameObject {
	var candidates []*world.GameObject
	for _, o := range w.RoomObjects(a.Location) {
		if o.Properties.Treasure {
			candidates = append(candidates, o)
		}
	}
	if perceivesPlayer {
		for _, o := range w.InventoryObjects() {
			if o.Properties.Treasure {
				candidates = append(candidates, o)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Properties.Value > candidates[j].Properties.Value
	})
	return candidates[0]
}

func (t *Thief) steal(a *Actor, w *world.World, target *world.GameObject, perceivesPlayer bool) []string {
	fromPlayer := target.Location == world.LocationPlayer

	if fromPlayer {
		w.Player.RemoveItem(target.ID)
	} else if room, ok := w.Room(target.Location); ok {
		room.RemoveObject(target.ID)
	} else if container, ok := w.Object(target.Location); ok {
		// Lifted straight out of an open container.
		contents := container.Properties.Contents
		for i, id := range contents {
			if id == target.ID {
				container.Properties.Contents = append(contents[:i], contents[i+1:]...)
				break
			}
		}
	}

	target.Location = a.ID
	target.Visible = false
	a.addItem(target.ID)
	a.syncFlags()

	if t.events != nil {
		t.events.ActorEvent("theft", a.ID, map[string]interface{}{
			"object_id":   target.ID,
			"from_player": fromPlayer,
		})
	}

	if fromPlayer || perceivesPlayer {
		return []string{fmt.Sprintf("A seedy-looking gentleman slips the %s into his bag and vanishes into the shadows!", target.Name)}
	}
	return nil
}

func (t *Thief) deposit(a *Actor, w *world.World) []string {
	room := w.Rooms[a.Location]
	for _, id := range a.Inventory {
		if o, ok := w.Object(id); ok {
			o.Location = a.Location
			o.Visible = true
			room.AddObject(id)
			if t.events != nil {
				t.events.ActorEvent("deposit", a.ID, map[string]interface{}{"object_id": id})
			}
		}
	}
	a.Inventory = nil
	a.syncFlags()
	return nil
}

// wander moves the thief through a deterministic exit choice derived from
// the roll.
func (t *Thief) wander(a *Actor, w *world.World, roll float64, perceivesPlayer bool) []string {
	room, ok := w.Room(a.Location)
	if !ok || len(room.Exits) == 0 {
		return nil
	}

	dirs := make([]string, 0, len(room.Exits))
	for dir := range room.Exits {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	pick := int(roll * float64(len(dirs)))
	if pick >= len(dirs) {
		pick = len(dirs) - 1
	}
	a.Location = room.Exits[dirs[pick]]
	a.syncFlags()

	if perceivesPlayer {
		return []string{"The thief melts into the darkness."}
	}
	return nil
}

// OnGift implements Conversation. The thief accepts anything; a
// sufficiently valuable gift leaves him engrossed, and any gift revives
// him when he is merely unconscious.
func (t *Thief) OnGift(a *Actor, w *world.World, obj *world.GameObject) (bool, string) {
	if a.IsDead() {
		return false, "He is beyond caring about gifts."
	}

	w.Player.RemoveItem(obj.ID)
	obj.Location = a.ID
	obj.Visible = false
	a.addItem(obj.ID)

	revived := a.Revive(t.Config.ReviveStrength)
	if t.events != nil {
		t.events.ActorEvent("gift_accepted", a.ID, map[string]interface{}{
			"object_id": obj.ID,
			"value":     obj.Properties.Value,
		})
		if revived {
			t.events.ActorEvent("revival", a.ID, map[string]interface{}{"strength": a.Strength})
		}
	}

	if obj.Properties.Treasure && obj.Properties.Value >= t.Config.GiftThreshold {
		a.SetEngrossed(true)
		a.syncFlags()
		return true, fmt.Sprintf("The thief is taken aback by your generosity and examines the %s intently.", obj.Name)
	}

	a.syncFlags()
	return true, fmt.Sprintf("The thief pockets the %s with a smirk.", obj.Name)
}
