package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwhitt/adventure-engine/pkg/fuzzy"
	"github.com/cwhitt/adventure-engine/pkg/lexicon"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

// ParsedCommand is the structured form of one sub-command. Object phrases
// are raw text; resolution to concrete object IDs is the resolver's job.
type ParsedCommand struct {
	Verb           string   `json:"verb,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	DirectObject   string   `json:"direct_object,omitempty"`
	IndirectObject string   `json:"indirect_object,omitempty"`
	Preposition    string   `json:"preposition,omitempty"`
	RawInput       string   `json:"raw_input"`
	IsValid        bool     `json:"is_valid"`
	ErrorMessage   string   `json:"error_message,omitempty"`
	Suggestions    []string `json:"suggestions,omitempty"` // near-miss verbs for an unknown first token
}

// Parser tokenizes and normalizes one command string against the lexicon.
// It remembers the last referenced object phrase so pronouns ("take it")
// resolve to it on the next parse.
type Parser struct {
	lex      *lexicon.Lexicon
	cfg      lexicon.Config
	matcher  *fuzzy.Matcher
	recorder *telemetry.Recorder

	lastReferenced string
}

// NewParser creates a parser over the given vocabulary and tuning.
func NewParser(lex *lexicon.Lexicon, cfg lexicon.Config, recorder *telemetry.Recorder) *Parser {
	return &Parser{
		lex:      lex,
		cfg:      cfg,
		matcher:  fuzzy.NewMatcher(cfg.FuzzyThreshold, cfg.MaxCandidates),
		recorder: recorder,
	}
}

// SetLastReferenced remembers the canonical phrase pronouns substitute to.
func (p *Parser) SetLastReferenced(phrase string) {
	p.lastReferenced = strings.ToLower(strings.TrimSpace(phrase))
}

// LastReferenced returns the remembered pronoun referent.
func (p *Parser) LastReferenced() string {
	return p.lastReferenced
}

// Parse turns one command string into a ParsedCommand. Every failure mode
// yields IsValid=false with a player-facing message; Parse never panics
// and has no side effects beyond telemetry.
func (p *Parser) Parse(raw string) ParsedCommand {
	p.recorder.Record(telemetry.EventParseAttempt, map[string]interface{}{"input": raw})

	input := strings.ToLower(strings.TrimSpace(raw))
	if input == "" {
		return p.fail(raw, "I beg your pardon?", nil)
	}

	tokens := strings.Fields(input)

	// A single bare direction is a move command, ahead of verb lookup.
	if len(tokens) == 1 {
		if dir, ok := p.lex.CanonicalDirection(tokens[0]); ok {
			return p.succeed(ParsedCommand{
				Verb:      lexicon.VerbMove,
				Direction: dir,
				RawInput:  raw,
			})
		}
	}

	// Phrasal verbs take precedence over single-token lookup.
	verb := ""
	rest := tokens
	if len(tokens) >= 2 {
		prefix := tokens[0] + " " + tokens[1]
		if v, ok := p.lex.PhrasalVerbs[prefix]; ok {
			verb = v
			rest = tokens[2:]
		}
	}
	if verb == "" {
		v, ok := p.lex.CanonicalVerb(tokens[0])
		if !ok {
			return p.failUnknownVerb(raw, tokens[0])
		}
		verb = v
		rest = tokens[1:]
	}

	spec := p.lex.Verbs[verb]
	cmd := ParsedCommand{Verb: verb, RawInput: raw}

	if verb == lexicon.VerbMove {
		return p.parseMove(raw, cmd, rest)
	}

	// For verbs with an indirect object, split the remainder around the
	// first preposition token.
	var directTokens, indirectTokens []string
	if spec.AcceptsIndirect {
		splitAt := -1
		for i, tok := range rest {
			if p.lex.IsPreposition(tok) {
				splitAt = i
				break
			}
		}
		if splitAt >= 0 {
			cmd.Preposition = rest[splitAt]
			directTokens = rest[:splitAt]
			indirectTokens = rest[splitAt+1:]
			if len(indirectTokens) == 0 {
				return p.fail(raw, fmt.Sprintf("What do you want to %s %s %s?", verb, phraseOf(directTokens), cmd.Preposition), nil)
			}
		} else {
			directTokens = rest
		}
	} else {
		directTokens = rest
	}

	cmd.DirectObject = p.objectPhrase(directTokens)
	cmd.IndirectObject = p.objectPhrase(indirectTokens)

	if spec.RequiresObject && cmd.DirectObject == "" {
		return p.fail(raw, fmt.Sprintf("What do you want to %s?", verb), nil)
	}

	return p.succeed(cmd)
}

func (p *Parser) parseMove(raw string, cmd ParsedCommand, rest []string) ParsedCommand {
	for _, tok := range rest {
		if p.lex.IsDeterminer(tok) || tok == "to" {
			continue
		}
		if dir, ok := p.lex.CanonicalDirection(tok); ok {
			cmd.Direction = dir
			return p.succeed(cmd)
		}
		// Free-form named exit ("go trapdoor").
		cmd.Direction = tok
		return p.succeed(cmd)
	}
	return p.fail(raw, "Which way do you want to go?", nil)
}

// objectPhrase strips determiners and fillers and substitutes a leading
// pronoun with the last referenced object phrase.
func (p *Parser) objectPhrase(tokens []string) string {
	var kept []string
	for _, tok := range tokens {
		if p.lex.IsDeterminer(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) > 0 && p.lex.IsPronoun(kept[0]) && p.lastReferenced != "" {
		kept = append(strings.Fields(p.lastReferenced), kept[1:]...)
	}
	return strings.Join(kept, " ")
}

func (p *Parser) failUnknownVerb(raw, token string) ParsedCommand {
	var suggestions []string
	verbs := make([]string, 0, len(p.lex.VerbAliases))
	for alias := range p.lex.VerbAliases {
		verbs = append(verbs, alias)
	}
	sort.Strings(verbs) // map order must not leak into suggestion order
	for _, m := range p.matcher.Match(token, verbs) {
		suggestions = append(suggestions, m.Value)
	}
	return p.fail(raw, fmt.Sprintf("I don't know the word %q.", token), suggestions)
}

func (p *Parser) fail(raw, message string, suggestions []string) ParsedCommand {
	p.recorder.Record(telemetry.EventParseFailure, map[string]interface{}{
		"input":   raw,
		"message": message,
	})
	return ParsedCommand{
		RawInput:     raw,
		IsValid:      false,
		ErrorMessage: message,
		Suggestions:  suggestions,
	}
}

func (p *Parser) succeed(cmd ParsedCommand) ParsedCommand {
	cmd.IsValid = true
	p.recorder.Record(telemetry.EventParseSuccess, map[string]interface{}{
		"input": cmd.RawInput,
		"verb":  cmd.Verb,
	})
	return cmd
}

func phraseOf(tokens []string) string {
	return strings.Join(tokens, " ")
}
