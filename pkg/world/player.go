package world

// Player is the player character's mutable state. It is mutated only
// through engine operations, never directly by the UI or parser.
type Player struct {
	Room      string          `json:"room"`
	Inventory []string        `json:"inventory,omitempty"`
	Score     int             `json:"score"`
	Moves     int             `json:"moves"`
	Alive     bool            `json:"alive"`
	Flags     map[string]bool `json:"flags,omitempty"`
}

// NewPlayer creates a live player in the given starting room.
func NewPlayer(startRoom string) *Player {
	return &Player{
		Room:  startRoom,
		Alive: true,
		Flags: make(map[string]bool),
	}
}

// Has reports whether the object ID is in the player's inventory.
func (p *Player) Has(id string) bool {
	for _, o := range p.Inventory {
		if o == id {
			return true
		}
	}
	return false
}

// AddItem appends an object ID to the inventory if not already carried.
func (p *Player) AddItem(id string) {
	if !p.Has(id) {
		p.Inventory = append(p.Inventory, id)
	}
}

// RemoveItem deletes an object ID from the inventory.
func (p *Player) RemoveItem(id string) {
	for i, o := range p.Inventory {
		if o == id {
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return
		}
	}
}

// Flag returns the named progress flag.
func (p *Player) Flag(name string) bool {
	return p.Flags[name]
}

// SetFlag sets the named progress flag.
func (p *Player) SetFlag(name string, v bool) {
	if p.Flags == nil {
		p.Flags = make(map[string]bool)
	}
	p.Flags[name] = v
}
