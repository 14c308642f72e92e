// Package world owns the game's data model: rooms, objects, the player,
// and the repository that indexes and mutates them. Behavior lives in the
// engine's verb dispatch; records here carry data and capability flags
// only.
package world

import (
	"fmt"
	"strings"
)

// World is the id-indexed repository of rooms and objects plus the player.
// It is owned by the engine and passed explicitly wherever mutation is
// needed; nothing mutates it through captured closures.
type World struct {
	Rooms   map[string]*Room
	Objects map[string]*GameObject
	Player  *Player

	// Conditions gate objects with a visible_for list.
	Conditions map[string]bool
}

// New creates an empty world with a player placed in startRoom.
func New(startRoom string) *World {
	return &World{
		Rooms:      make(map[string]*Room),
		Objects:    make(map[string]*GameObject),
		Player:     NewPlayer(startRoom),
		Conditions: make(map[string]bool),
	}
}

// Room returns the room with the given ID.
func (w *World) Room(id string) (*Room, bool) {
	r, ok := w.Rooms[id]
	return r, ok
}

// Object returns the object with the given ID.
func (w *World) Object(id string) (*GameObject, bool) {
	o, ok := w.Objects[id]
	return o, ok
}

// CurrentRoom returns the player's room.
func (w *World) CurrentRoom() *Room {
	return w.Rooms[w.Player.Room]
}

// ObjectVisible reports whether the object can currently be perceived:
// not stolen/invisible, not an unsatisfied secret, and not gated by an
// unmet condition. Darkness is the engine's concern, not checked here.
func (w *World) ObjectVisible(o *GameObject) bool {
	if !o.Visible || o.Hidden {
		return false
	}
	for _, cond := range o.VisibleFor {
		if !w.Conditions[cond] {
			return false
		}
	}
	return true
}

// RoomObjects returns the visible objects directly in the room, plus the
// visible contents of any open containers there. Objects inside a closed
// container are not reachable even when individually visible.
func (w *World) RoomObjects(roomID string) []*GameObject {
	room, ok := w.Rooms[roomID]
	if !ok {
		return nil
	}
	var out []*GameObject
	for _, id := range room.Objects {
		o, ok := w.Objects[id]
		if !ok || !w.ObjectVisible(o) {
			continue
		}
		out = append(out, o)
		if o.Properties.Container && o.Properties.Open {
			for _, cid := range o.Properties.Contents {
				if c, ok := w.Objects[cid]; ok && w.ObjectVisible(c) {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// InventoryObjects returns the objects the player carries, in inventory
// order.
func (w *World) InventoryObjects() []*GameObject {
	var out []*GameObject
	for _, id := range w.Player.Inventory {
		if o, ok := w.Objects[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// AllObjects returns every object in the catalogue. Ordering is not
// defined; callers needing determinism must sort.
func (w *World) AllObjects() []*GameObject {
	out := make([]*GameObject, 0, len(w.Objects))
	for _, o := range w.Objects {
		out = append(out, o)
	}
	return out
}

// MoveObject relocates an object, keeping room object lists, container
// contents and the inventory consistent with the object's location field.
func (w *World) MoveObject(id, to string) error {
	o, ok := w.Objects[id]
	if !ok {
		return fmt.Errorf("unknown object %q", id)
	}

	// Detach from the old location.
	switch {
	case o.Location == LocationPlayer:
		w.Player.RemoveItem(id)
	case w.Rooms[o.Location] != nil:
		w.Rooms[o.Location].RemoveObject(id)
	case w.Objects[o.Location] != nil:
		removeString(&w.Objects[o.Location].Properties.Contents, id)
	}

	// Attach to the new one.
	switch {
	case to == LocationPlayer:
		w.Player.AddItem(id)
	case w.Rooms[to] != nil:
		w.Rooms[to].AddObject(id)
	case w.Objects[to] != nil:
		appendUnique(&w.Objects[to].Properties.Contents, id)
	default:
		return fmt.Errorf("unknown destination %q for object %q", to, id)
	}

	o.Location = to
	return nil
}

// ContainmentRoom walks the location chain of an object up to the room
// (or player) that ultimately holds it. Chains are validated acyclic at
// load time; the depth guard here is belt and braces.
func (w *World) ContainmentRoom(id string) (string, bool) {
	cur := id
	for depth := 0; depth < len(w.Objects)+1; depth++ {
		o, ok := w.Objects[cur]
		if !ok {
			return "", false
		}
		if o.Location == LocationPlayer {
			return LocationPlayer, true
		}
		if _, isRoom := w.Rooms[o.Location]; isRoom {
			return o.Location, true
		}
		cur = o.Location
	}
	return "", false
}

// Validate checks the structural invariants of the world graph: exit
// targets resolve, object locations resolve, and containment chains
// terminate without cycles.
func (w *World) Validate() error {
	for id, room := range w.Rooms {
		for dir, dest := range room.Exits {
			if _, ok := w.Rooms[dest]; !ok {
				return fmt.Errorf("room %q: exit %q points to unknown room %q", id, dir, dest)
			}
		}
		for _, oid := range room.Objects {
			if _, ok := w.Objects[oid]; !ok {
				return fmt.Errorf("room %q: lists unknown object %q", id, oid)
			}
		}
	}
	for id, o := range w.Objects {
		if o.Location == LocationPlayer {
			continue
		}
		_, isRoom := w.Rooms[o.Location]
		_, isObject := w.Objects[o.Location]
		if !isRoom && !isObject {
			return fmt.Errorf("object %q: location %q is neither a room, an object, nor the player", id, o.Location)
		}
		if isObject {
			if err := w.checkContainmentChain(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *World) checkContainmentChain(id string) error {
	seen := map[string]bool{id: true}
	cur := id
	for {
		o := w.Objects[cur]
		next := o.Location
		if next == LocationPlayer {
			return nil
		}
		if _, isRoom := w.Rooms[next]; isRoom {
			return nil
		}
		if seen[next] {
			return fmt.Errorf("object %q: containment chain cycles through %q", id, next)
		}
		if _, ok := w.Objects[next]; !ok {
			return fmt.Errorf("object %q: containment chain reaches unknown location %q", id, next)
		}
		seen[next] = true
		cur = next
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func removeString(s *[]string, v string) {
	for i, x := range *s {
		if x == v {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return
		}
	}
}

func appendUnique(s *[]string, v string) {
	for _, x := range *s {
		if x == v {
			return
		}
	}
	*s = append(*s, v)
}
