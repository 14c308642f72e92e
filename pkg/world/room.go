package world

// Room is a location in the world graph. Exits map a direction name to a
// destination room ID; an absent direction means "no exit that way".
type Room struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description,omitempty"`
	Exits            map[string]string `json:"exits,omitempty"`
	Objects          []string          `json:"objects,omitempty"`
	Visited          bool              `json:"visited,omitempty"`
	Dark             bool              `json:"dark,omitempty"`
}

// Exit returns the destination room ID for a direction, if any.
func (r *Room) Exit(direction string) (string, bool) {
	dest, ok := r.Exits[direction]
	return dest, ok
}

// HasObject reports whether the object ID is directly in the room.
func (r *Room) HasObject(id string) bool {
	for _, o := range r.Objects {
		if o == id {
			return true
		}
	}
	return false
}

// AddObject appends an object ID to the room if not already present.
func (r *Room) AddObject(id string) {
	if !r.HasObject(id) {
		r.Objects = append(r.Objects, id)
	}
}

// RemoveObject deletes an object ID from the room.
func (r *Room) RemoveObject(id string) {
	for i, o := range r.Objects {
		if o == id {
			r.Objects = append(r.Objects[:i], r.Objects[i+1:]...)
			return
		}
	}
}
