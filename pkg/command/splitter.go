// Package command turns raw player input into parsed command structures:
// the splitter cuts a line into sub-commands, the parser turns one
// sub-command into a verb/object structure using the lexicon.
package command

import "strings"

// SplitResult is the outcome of multi-command splitting.
type SplitResult struct {
	Commands       []string
	IsMultiCommand bool
}

// Split cuts a raw line into ordered sub-commands on the configured
// separator tokens. Splitting is naive textual splitting: a separator
// word inside an object name splits there too. That is a documented
// limitation, not a bug to special-case.
func Split(input string, separators []string) SplitResult {
	seps := make(map[string]bool, len(separators))
	for _, s := range separators {
		seps[strings.ToLower(s)] = true
	}

	// Commas rarely arrive as standalone tokens; detach them first.
	normalized := strings.ReplaceAll(input, ",", " , ")
	tokens := strings.Fields(normalized)

	var commands []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			commands = append(commands, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, tok := range tokens {
		if seps[strings.ToLower(tok)] {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()

	return SplitResult{
		Commands:       commands,
		IsMultiCommand: len(commands) > 1,
	}
}
