package world

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalogue is the on-disk shape of the static world data supplied by the
// world data loader collaborator.
type Catalogue struct {
	StartRoom string        `json:"start_room"`
	Rooms     []*Room       `json:"rooms"`
	Objects   []*GameObject `json:"objects"`
}

// FromCatalogue builds and validates a world from a loaded catalogue.
func FromCatalogue(cat *Catalogue) (*World, error) {
	if cat.StartRoom == "" {
		return nil, fmt.Errorf("catalogue has no start_room")
	}

	w := New(cat.StartRoom)
	for _, r := range cat.Rooms {
		if r.ID == "" {
			return nil, fmt.Errorf("room with empty id")
		}
		if _, dup := w.Rooms[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %q", r.ID)
		}
		w.Rooms[r.ID] = r
	}
	for _, o := range cat.Objects {
		if o.ID == "" {
			return nil, fmt.Errorf("object with empty id")
		}
		if _, dup := w.Objects[o.ID]; dup {
			return nil, fmt.Errorf("duplicate object id %q", o.ID)
		}
		w.Objects[o.ID] = o
	}

	if _, ok := w.Rooms[cat.StartRoom]; !ok {
		return nil, fmt.Errorf("start_room %q does not exist", cat.StartRoom)
	}

	// Objects carried from the start, in catalogue order: the resolver's
	// search order derives from the inventory, so it must be stable.
	for _, o := range cat.Objects {
		if o.Location == LocationPlayer {
			w.Player.AddItem(o.ID)
		}
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadFile reads a world catalogue from a JSON file and builds the world.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read world file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses a world catalogue from JSON and builds the world.
func LoadBytes(data []byte) (*World, error) {
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal world catalogue: %w", err)
	}
	return FromCatalogue(&cat)
}
