// Package resolver maps an object phrase plus a visibility context to
// zero, one, or many candidate game objects. Exact matches win; ordinal
// phrases ("2nd coin") pick among same-named objects; fuzzy matching
// catches near misses and produces ranked disambiguation candidates.
package resolver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cwhitt/adventure-engine/pkg/fuzzy"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
	"github.com/cwhitt/adventure-engine/pkg/world"
)

// Candidate is one possible referent for an ambiguous phrase.
type Candidate struct {
	ObjectID string  `json:"object_id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Context  string  `json:"context"` // human-readable location hint
}

// Result is the outcome of resolving one object phrase.
type Result struct {
	Resolved            bool
	Object              *world.GameObject
	Score               float64
	Candidates          []Candidate
	NeedsDisambiguation bool
}

// Context carries the objects visible to the player for this resolution,
// in search-priority order: room first, then inventory, then optionally
// the remaining catalogue.
type Context struct {
	Room      []*world.GameObject
	Inventory []*world.GameObject
	Catalogue []*world.GameObject
}

// Resolver resolves object phrases against a context.
type Resolver struct {
	cfg      lexicon.Config
	lex      *lexicon.Lexicon
	matcher  *fuzzy.Matcher
	recorder *telemetry.Recorder
}

// New creates a resolver with the given tuning.
func New(lex *lexicon.Lexicon, cfg lexicon.Config, recorder *telemetry.Recorder) *Resolver {
	return &Resolver{
		cfg:      cfg,
		lex:      lex,
		matcher:  fuzzy.NewMatcher(cfg.FuzzyThreshold, 0),
		recorder: recorder,
	}
}

var digitOrdinalRe = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)\s+(.+)$`)

// Resolve maps a phrase to a result. "Nothing found" is a zero-candidate
// unresolved result, not an error: callers surface it as "I don't see
// that here."
func (r *Resolver) Resolve(phrase string, ctx Context) Result {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return Result{}
	}

	if n, rest, ok := r.extractOrdinal(phrase); ok {
		return r.resolveOrdinal(n, rest, ctx)
	}

	if res, done := r.resolveExact(phrase, ctx); done {
		return res
	}

	return r.resolveFuzzy(phrase, ctx)
}

// extractOrdinal recognizes "2nd coin" and "second coin" phrases.
func (r *Resolver) extractOrdinal(phrase string) (int, string, bool) {
	if m := digitOrdinalRe.FindStringSubmatch(phrase); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return n, m[2], true
		}
	}
	first, rest, found := strings.Cut(phrase, " ")
	if found && rest != "" {
		if n, ok := r.lex.OrdinalWords[first]; ok {
			return n, rest, true
		}
	}
	return 0, "", false
}

// resolveOrdinal finds all objects substring-matching the base phrase in
// room+inventory+catalogue order and selects the Nth (1-indexed). An
// out-of-range ordinal returns every match as a disambiguation candidate
// rather than failing silently.
func (r *Resolver) resolveOrdinal(n int, rest string, ctx Context) Result {
	var matches []*world.GameObject
	for _, o := range r.searchOrder(ctx) {
		if substringMatches(o, rest) {
			matches = append(matches, o)
		}
	}
	if len(matches) == 0 {
		return Result{}
	}

	if n > len(matches) {
		res := Result{NeedsDisambiguation: true}
		for _, o := range matches {
			res.Candidates = append(res.Candidates, r.candidate(o, ctx, false))
		}
		return res
	}

	chosen := matches[n-1]
	r.recorder.Record(telemetry.EventOrdinalSelected, map[string]interface{}{
		"phrase":    rest,
		"ordinal":   n,
		"object_id": chosen.ID,
		"matches":   len(matches),
	})
	return Result{Resolved: true, Object: chosen, Score: 1.0}
}

// resolveExact performs case-insensitive equality against id, name and
// aliases across room, inventory, then catalogue. done=false means no
// exact match exists and fuzzy matching should run.
func (r *Resolver) resolveExact(phrase string, ctx Context) (Result, bool) {
	var hits []*world.GameObject
	for _, o := range r.searchOrder(ctx) {
		if o.MatchesPhrase(phrase) {
			hits = append(hits, o)
		}
	}

	switch len(hits) {
	case 0:
		return Result{}, false
	case 1:
		return Result{Resolved: true, Object: hits[0], Score: 1.0}, true
	default:
		res := Result{NeedsDisambiguation: true}
		for _, o := range hits {
			res.Candidates = append(res.Candidates, r.candidate(o, ctx, true))
		}
		sortCandidates(res.Candidates)
		return res, true
	}
}

// resolveFuzzy matches the phrase against every id/name/alias above the
// similarity threshold, deduplicates alias hits onto one candidate per
// object, and ranks by the contractual scoring composition.
func (r *Resolver) resolveFuzzy(phrase string, ctx Context) Result {
	order := r.searchOrder(ctx)

	byString := make(map[string]*world.GameObject)
	var searchStrings []string
	for _, o := range order {
		for _, s := range o.SearchStrings() {
			key := strings.ToLower(s)
			if _, seen := byString[key]; !seen {
				byString[key] = o
				searchStrings = append(searchStrings, key)
			}
		}
	}

	matches := r.matcher.Match(phrase, searchStrings)
	if len(matches) == 0 {
		return Result{}
	}

	// Dedupe multiple alias hits mapping to the same object.
	seen := make(map[string]bool)
	var objs []*world.GameObject
	similarity := make(map[string]float64)
	for _, m := range matches {
		o := byString[m.Value]
		if seen[o.ID] {
			continue
		}
		seen[o.ID] = true
		objs = append(objs, o)
		similarity[o.ID] = m.Score
		r.recorder.Record(telemetry.EventFuzzyMatch, map[string]interface{}{
			"phrase":    phrase,
			"matched":   m.Value,
			"object_id": o.ID,
			"score":     m.Score,
		})
	}

	candidates := make([]Candidate, 0, len(objs))
	for _, o := range objs {
		candidates = append(candidates, r.candidate(o, ctx, equalFoldName(o, phrase)))
	}
	sortCandidatesBySimilarity(candidates, similarity)

	if r.cfg.MaxCandidates > 0 && len(candidates) > r.cfg.MaxCandidates {
		candidates = candidates[:r.cfg.MaxCandidates]
	}

	if len(candidates) == 1 {
		o := objectByID(objs, candidates[0].ObjectID)
		return Result{Resolved: true, Object: o, Score: candidates[0].Score}
	}

	return Result{NeedsDisambiguation: true, Candidates: candidates}
}

// candidate builds the ranked candidate for an object. The score
// composition is contractual: base 0.5, +0.3 in the current room, +0.2
// in inventory, +0.3 exact canonical-name match, capped at 1.0.
func (r *Resolver) candidate(o *world.GameObject, ctx Context, nameExact bool) Candidate {
	score := 0.5
	context := "nearby"
	if containsObject(ctx.Room, o.ID) {
		score += 0.3
		context = "in the room"
	} else if containsObject(ctx.Inventory, o.ID) {
		score += 0.2
		context = "in your inventory"
	}
	if nameExact {
		score += 0.3
	}
	if score > 1.0 {
		score = 1.0
	}
	return Candidate{ObjectID: o.ID, Name: o.Name, Score: score, Context: context}
}

// searchOrder is room objects, then inventory, then the rest of the
// catalogue minus already-searched objects.
func (r *Resolver) searchOrder(ctx Context) []*world.GameObject {
	seen := make(map[string]bool)
	var out []*world.GameObject
	add := func(objs []*world.GameObject) {
		for _, o := range objs {
			if !seen[o.ID] {
				seen[o.ID] = true
				out = append(out, o)
			}
		}
	}
	add(ctx.Room)
	add(ctx.Inventory)

	// Catalogue order is map-derived upstream; sort for determinism.
	rest := make([]*world.GameObject, 0, len(ctx.Catalogue))
	for _, o := range ctx.Catalogue {
		if !seen[o.ID] {
			rest = append(rest, o)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })
	add(rest)
	return out
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Score > cs[j].Score })
}

func sortCandidatesBySimilarity(cs []Candidate, similarity map[string]float64) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Score != cs[j].Score {
			return cs[i].Score > cs[j].Score
		}
		return similarity[cs[i].ObjectID] > similarity[cs[j].ObjectID]
	})
}

func substringMatches(o *world.GameObject, phrase string) bool {
	for _, s := range o.SearchStrings() {
		if strings.Contains(strings.ToLower(s), phrase) {
			return true
		}
	}
	return false
}

func equalFoldName(o *world.GameObject, phrase string) bool {
	return strings.EqualFold(o.Name, phrase)
}

func containsObject(objs []*world.GameObject, id string) bool {
	for _, o := range objs {
		if o.ID == id {
			return true
		}
	}
	return false
}

func objectByID(objs []*world.GameObject, id string) *world.GameObject {
	for _, o := range objs {
		if o.ID == id {
			return o
		}
	}
	return nil
}
