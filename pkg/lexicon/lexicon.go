// Package lexicon holds the static vocabulary tables consumed by the
// command parser and object resolver: canonical verbs, verb aliases,
// phrasal verbs, directions, prepositions, determiners and pronouns.
package lexicon

// Canonical verbs. Every alias the parser accepts resolves to one of these.
const (
	VerbMove       = "move"
	VerbLook       = "look"
	VerbExamine    = "examine"
	VerbTake       = "take"
	VerbDrop       = "drop"
	VerbOpen       = "open"
	VerbClose      = "close"
	VerbPut        = "put"
	VerbInventory  = "inventory"
	VerbLight      = "light"
	VerbExtinguish = "extinguish"
	VerbAttack     = "attack"
	VerbGive       = "give"
	VerbScore      = "score"
	VerbWait       = "wait"
)

// VerbSpec describes how the parser treats a canonical verb.
type VerbSpec struct {
	RequiresObject  bool // verb is invalid without a direct object phrase
	AcceptsIndirect bool // verb may take a preposition-linked indirect object
}

// Lexicon is the full vocabulary used for parsing and resolution.
// Tables are keyed lowercase; all lookups are case-insensitive by
// construction (callers lowercase input before lookup).
type Lexicon struct {
	Verbs        map[string]VerbSpec
	VerbAliases  map[string]string // alias token -> canonical verb
	PhrasalVerbs map[string]string // multi-token prefix -> canonical verb
	Directions   map[string]string // direction alias -> canonical direction
	Prepositions []string
	Determiners  []string // stripped from object phrases
	Pronouns     []string // resolved against the last referenced object
	Separators   []string // multi-command separators
	OrdinalWords map[string]int
}

// Default returns the stock vocabulary. Callers may mutate the returned
// value (e.g. via ApplyConfig) without affecting other instances.
func Default() *Lexicon {
	return &Lexicon{
		Verbs: map[string]VerbSpec{
			VerbMove:       {RequiresObject: true},
			VerbLook:       {},
			VerbExamine:    {RequiresObject: true},
			VerbTake:       {RequiresObject: true},
			VerbDrop:       {RequiresObject: true},
			VerbOpen:       {RequiresObject: true},
			VerbClose:      {RequiresObject: true},
			VerbPut:        {RequiresObject: true, AcceptsIndirect: true},
			VerbInventory:  {},
			VerbLight:      {RequiresObject: true},
			VerbExtinguish: {RequiresObject: true},
			VerbAttack:     {RequiresObject: true, AcceptsIndirect: true},
			VerbGive:       {RequiresObject: true, AcceptsIndirect: true},
			VerbScore:      {},
			VerbWait:       {},
		},
		VerbAliases: map[string]string{
			"move":        VerbMove,
			"go":          VerbMove,
			"walk":        VerbMove,
			"run":         VerbMove,
			"look":        VerbLook,
			"l":           VerbLook,
			"examine":     VerbExamine,
			"x":           VerbExamine,
			"read":        VerbExamine,
			"check":       VerbExamine,
			"inspect":     VerbExamine,
			"take":        VerbTake,
			"get":         VerbTake,
			"grab":        VerbTake,
			"pick":        VerbTake,
			"drop":        VerbDrop,
			"discard":     VerbDrop,
			"open":        VerbOpen,
			"close":       VerbClose,
			"shut":        VerbClose,
			"put":         VerbPut,
			"place":       VerbPut,
			"insert":      VerbPut,
			"inventory":   VerbInventory,
			"i":           VerbInventory,
			"inv":         VerbInventory,
			"light":       VerbLight,
			"extinguish":  VerbExtinguish,
			"douse":       VerbExtinguish,
			"attack":      VerbAttack,
			"kill":        VerbAttack,
			"hit":         VerbAttack,
			"fight":       VerbAttack,
			"give":        VerbGive,
			"offer":       VerbGive,
			"score":       VerbScore,
			"wait":        VerbWait,
			"z":           VerbWait,
		},
		PhrasalVerbs: map[string]string{
			"turn on":  VerbLight,
			"turn off": VerbExtinguish,
			"look at":  VerbExamine,
			"pick up":  VerbTake,
			"put down": VerbDrop,
		},
		Directions: map[string]string{
			"n": "north", "north": "north",
			"s": "south", "south": "south",
			"e": "east", "east": "east",
			"w": "west", "west": "west",
			"ne": "northeast", "northeast": "northeast",
			"nw": "northwest", "northwest": "northwest",
			"se": "southeast", "southeast": "southeast",
			"sw": "southwest", "southwest": "southwest",
			"u": "up", "up": "up",
			"d": "down", "down": "down",
			"in": "in", "enter": "in",
			"out": "out", "exit": "out",
		},
		Prepositions: []string{"in", "into", "inside", "on", "to", "with", "at"},
		Determiners:  []string{"the", "a", "an"},
		Pronouns:     []string{"it", "them"},
		Separators:   []string{"and", "then", ","},
		OrdinalWords: map[string]int{
			"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
			"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
		},
	}
}

// CanonicalVerb resolves a single token to a canonical verb.
func (l *Lexicon) CanonicalVerb(token string) (string, bool) {
	v, ok := l.VerbAliases[token]
	return v, ok
}

// CanonicalDirection resolves a direction alias to its canonical form.
func (l *Lexicon) CanonicalDirection(token string) (string, bool) {
	d, ok := l.Directions[token]
	return d, ok
}

// IsPreposition reports whether the token is a configured preposition.
func (l *Lexicon) IsPreposition(token string) bool {
	for _, p := range l.Prepositions {
		if token == p {
			return true
		}
	}
	return false
}

// IsDeterminer reports whether the token is a determiner/filler word.
func (l *Lexicon) IsDeterminer(token string) bool {
	for _, d := range l.Determiners {
		if token == d {
			return true
		}
	}
	return false
}

// IsPronoun reports whether the token is a recognized pronoun.
func (l *Lexicon) IsPronoun(token string) bool {
	for _, p := range l.Pronouns {
		if token == p {
			return true
		}
	}
	return false
}
