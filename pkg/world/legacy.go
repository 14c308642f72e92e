package world

import (
	"encoding/json"
	"fmt"
)

// Legacy snapshot support. The pre-versioned save format stored the
// player inline ("current_room", "items", "score") and object placement
// as a flat item->location map. Detection and migration are pure
// functions invoked only at load time, never on the hot path.

type legacySnapshot struct {
	CurrentRoom  string            `json:"current_room"`
	Items        []string          `json:"items"`
	Score        int               `json:"score"`
	Moves        int               `json:"moves"`
	Flags        map[string]bool   `json:"flags"`
	ItemLocation map[string]string `json:"item_locations"`
	VisitedRooms []string          `json:"visited_rooms"`
}

// IsLegacySnapshot reports whether the payload is a pre-versioned save:
// valid JSON with a "current_room" field and no "version" field.
func IsLegacySnapshot(data []byte) bool {
	var probe struct {
		Version     *int    `json:"version"`
		CurrentRoom *string `json:"current_room"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return probe.Version == nil && probe.CurrentRoom != nil
}

// MigrateLegacySnapshot converts a pre-versioned save payload into the
// current snapshot format.
func MigrateLegacySnapshot(data []byte) (*Snapshot, error) {
	var legacy legacySnapshot
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal legacy snapshot: %w", err)
	}
	if legacy.CurrentRoom == "" {
		return nil, fmt.Errorf("legacy snapshot has no current_room")
	}

	snap := &Snapshot{
		Version: SnapshotVersion,
		Player: &Player{
			Room:      legacy.CurrentRoom,
			Inventory: append([]string(nil), legacy.Items...),
			Score:     legacy.Score,
			Moves:     legacy.Moves,
			Alive:     true,
			Flags:     legacy.Flags,
		},
		Rooms:   make(map[string]RoomState),
		Objects: make(map[string]ObjectState),
	}
	if snap.Player.Flags == nil {
		snap.Player.Flags = make(map[string]bool)
	}
	for _, room := range legacy.VisitedRooms {
		snap.Rooms[room] = RoomState{Visited: true}
	}
	for item, loc := range legacy.ItemLocation {
		snap.Objects[item] = ObjectState{Location: loc, Visible: true}
	}
	return snap, nil
}

// LoadSnapshot parses a snapshot payload, migrating the legacy format
// when detected.
func LoadSnapshot(data []byte) (*Snapshot, error) {
	if IsLegacySnapshot(data) {
		return MigrateLegacySnapshot(data)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, SnapshotVersion)
	}
	return &snap, nil
}
