package world

// SnapshotVersion is the current snapshot format version. Version 0
// (absent field) is the legacy format handled by legacy.go.
const SnapshotVersion = 1

// RoomState is the mutable slice of a room captured in a snapshot.
type RoomState struct {
	Visited bool     `json:"visited"`
	Objects []string `json:"objects,omitempty"`
}

// ObjectState is the mutable slice of an object captured in a snapshot.
type ObjectState struct {
	Location string   `json:"location"`
	Visible  bool     `json:"visible"`
	Hidden   bool     `json:"hidden,omitempty"`
	Open     bool     `json:"open,omitempty"`
	Lit      bool     `json:"lit,omitempty"`
	Contents []string `json:"contents,omitempty"`
}

// ActorState is an actor's mutable state captured in a snapshot. The
// actor manager produces and consumes these; world only carries them.
type ActorState struct {
	Location      string   `json:"location"`
	Inventory     []string `json:"inventory,omitempty"`
	Strength      int      `json:"strength"`
	State         string   `json:"state"`
	Fighting      bool     `json:"fighting,omitempty"`
	BlocksPassage bool     `json:"blocks_passage,omitempty"`
	TickEnabled   bool     `json:"tick_enabled"`
	Engrossed     bool     `json:"engrossed,omitempty"`
}

// Snapshot is the serializable mutable state of a game session: player,
// room and object mutations, scoring progress, and actor states. Static
// catalogue fields (names, descriptions, capabilities) are not captured;
// restoring requires the same catalogue the snapshot was taken against.
type Snapshot struct {
	Version       int                    `json:"version"`
	Player        *Player                `json:"player"`
	Rooms         map[string]RoomState   `json:"rooms,omitempty"`
	Objects       map[string]ObjectState `json:"objects,omitempty"`
	Scored        []string               `json:"scored,omitempty"`
	DarknessTurns int                    `json:"darkness_turns,omitempty"`
	Status        string                 `json:"status,omitempty"`
	Actors        map[string]ActorState  `json:"actors,omitempty"`
}

// Capture copies the world's mutable state into a snapshot. Actor states
// are appended separately by the actor manager.
func (w *World) Capture() *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Player:  clonePlayer(w.Player),
		Rooms:   make(map[string]RoomState, len(w.Rooms)),
		Objects: make(map[string]ObjectState, len(w.Objects)),
	}
	for id, r := range w.Rooms {
		snap.Rooms[id] = RoomState{
			Visited: r.Visited,
			Objects: append([]string(nil), r.Objects...),
		}
	}
	for id, o := range w.Objects {
		snap.Objects[id] = ObjectState{
			Location: o.Location,
			Visible:  o.Visible,
			Hidden:   o.Hidden,
			Open:     o.Properties.Open,
			Lit:      o.Properties.Lit,
			Contents: append([]string(nil), o.Properties.Contents...),
		}
	}
	return snap
}

// Restore applies a snapshot's mutable state back onto the world. Rooms
// and objects absent from the snapshot keep their catalogue state.
func (w *World) Restore(snap *Snapshot) {
	if snap.Player != nil {
		w.Player = clonePlayer(snap.Player)
	}
	for id, rs := range snap.Rooms {
		if r, ok := w.Rooms[id]; ok {
			r.Visited = rs.Visited
			// Migrated legacy snapshots carry no room object lists;
			// keep the catalogue's list in that case.
			if rs.Objects != nil {
				r.Objects = append([]string(nil), rs.Objects...)
			}
		}
	}
	for id, os := range snap.Objects {
		if o, ok := w.Objects[id]; ok {
			o.Location = os.Location
			o.Visible = os.Visible
			o.Hidden = os.Hidden
			o.Properties.Open = os.Open
			o.Properties.Lit = os.Lit
			if os.Contents != nil {
				o.Properties.Contents = append([]string(nil), os.Contents...)
			}
		}
	}

	// Locations are authoritative; room lists, container contents and the
	// inventory are reconciled to them. Snapshot formats that omit the
	// membership lists (the legacy migration, emptied containers elided by
	// omitempty) restore correctly through this pass.
	for id := range snap.Objects {
		o, ok := w.Objects[id]
		if !ok {
			continue
		}
		for _, r := range w.Rooms {
			if o.Location == r.ID {
				r.AddObject(id)
			} else {
				r.RemoveObject(id)
			}
		}
		for _, c := range w.Objects {
			if c.ID == id {
				continue
			}
			if o.Location == c.ID {
				appendUnique(&c.Properties.Contents, id)
			} else {
				removeString(&c.Properties.Contents, id)
			}
		}
		if o.Location == LocationPlayer {
			w.Player.AddItem(id)
		} else {
			w.Player.RemoveItem(id)
		}
	}
}

func clonePlayer(p *Player) *Player {
	cp := *p
	cp.Inventory = append([]string(nil), p.Inventory...)
	cp.Flags = make(map[string]bool, len(p.Flags))
	for k, v := range p.Flags {
		cp.Flags[k] = v
	}
	return &cp
}
