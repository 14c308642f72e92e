package world

// Object location sentinel for the player's inventory. Any other location
// value is either a room ID or a containing object ID.
const LocationPlayer = "player"

// GameObject is a thing in the world: scenery, a portable item, a
// container, a treasure, a light source.
type GameObject struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`
	Portable    bool     `json:"portable,omitempty"`
	// Visible=false models "invisible/stolen"; Hidden=true models an
	// explicitly secret object. They are distinct flags with distinct
	// reveal paths.
	Visible    bool     `json:"visible"`
	Hidden     bool     `json:"hidden,omitempty"`
	Location   string   `json:"location"`
	VisibleFor []string `json:"visible_for,omitempty"` // condition names gating visibility

	Properties Properties `json:"properties,omitempty"`
}

// Properties is the capability bag for an object. Capabilities are data,
// not behavior: the engine's verb dispatch checks them.
type Properties struct {
	Openable  bool     `json:"openable,omitempty"`
	Open      bool     `json:"open,omitempty"`
	Locked    bool     `json:"locked,omitempty"`
	Container bool     `json:"container,omitempty"`
	Capacity  int      `json:"capacity,omitempty"`
	Lightable bool     `json:"lightable,omitempty"`
	Lit       bool     `json:"lit,omitempty"`
	Treasure  bool     `json:"treasure,omitempty"`
	Value     int      `json:"value,omitempty"`
	Weapon    bool     `json:"weapon,omitempty"`
	Trophy    bool     `json:"trophy,omitempty"` // the scoring container
	Text      string   `json:"text,omitempty"`   // read when examined
	Contents  []string `json:"contents,omitempty"`
}

// MatchesPhrase reports whether the phrase equals the object's id, name or
// any alias, case-insensitively. Exact equality only; fuzzy matching is
// the resolver's job.
func (o *GameObject) MatchesPhrase(phrase string) bool {
	if equalFold(phrase, o.ID) || equalFold(phrase, o.Name) {
		return true
	}
	for _, a := range o.Aliases {
		if equalFold(phrase, a) {
			return true
		}
	}
	return false
}

// SearchStrings returns every string the object can be matched by.
func (o *GameObject) SearchStrings() []string {
	out := make([]string, 0, 2+len(o.Aliases))
	out = append(out, o.ID, o.Name)
	out = append(out, o.Aliases...)
	return out
}
