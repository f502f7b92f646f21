package domain

import (
	"strings"

	"golang.org/x/text/width"
)

// MatchSpec is the boolean keyword filter applied to an item's searchable
// text (title + summary). Exclusion terms run first and are unconditional;
// keywords are split on whitespace into independent substring tokens.
type MatchSpec struct {
	Keywords        []string
	ExcludeKeywords []string
	Operator        SearchOperator
}

func (m MatchSpec) Empty() bool {
	return len(m.Keywords) == 0 && len(m.ExcludeKeywords) == 0
}

// Matches reports whether text passes the filter. An empty keyword set
// passes unconditionally (the trending path), but exclusion still applies.
func (m MatchSpec) Matches(text string) bool {
	folded := foldText(text)

	for _, exclude := range m.ExcludeKeywords {
		term := foldText(exclude)
		if term != "" && strings.Contains(folded, term) {
			return false
		}
	}

	tokens := m.tokens()
	if len(tokens) == 0 {
		return true
	}

	if NormalizeOperator(string(m.Operator)) == SearchOperatorAnd {
		for _, token := range tokens {
			if !strings.Contains(folded, token) {
				return false
			}
		}
		return true
	}

	for _, token := range tokens {
		if strings.Contains(folded, token) {
			return true
		}
	}
	return false
}

// tokens splits every keyword on whitespace and folds case and width.
// Multi-word keywords match as independent substrings, not phrases.
func (m MatchSpec) tokens() []string {
	tokens := make([]string, 0, len(m.Keywords))
	for _, keyword := range m.Keywords {
		for _, token := range strings.Fields(keyword) {
			token = foldText(token)
			if token != "" {
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}

// foldText lowercases and folds full-width characters to their half-width
// forms so CJK feed text matches ASCII keywords either way.
func foldText(text string) string {
	return strings.ToLower(width.Fold.String(strings.TrimSpace(text)))
}
