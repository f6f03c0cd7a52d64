// Package symbols extracts candidate ticker tokens from free text and
// intersects them with the symbol catalog.
package symbols

import (
	"context"
	"regexp"
	"strings"

	"stocksent/internal/domain/social"
)

// symbolPattern matches a $ sigil followed by alphanumerics, an optional
// single dot separator, ending in uppercase letters. Covers plain tickers
// like $AAPL and suffixed ones like $BRK.B. The capture group excludes the
// sigil.
var symbolPattern = regexp.MustCompile(`\$([A-Za-z0-9]+\.?[A-Z]+)`)

// Validator resolves which tickers mentioned in a message are worth
// scoring. Absence of matches is an empty result, never a failure.
type Validator struct {
	provider social.SymbolProvider
}

// NewValidator creates a validator over the given catalog.
func NewValidator(provider social.SymbolProvider) *Validator {
	return &Validator{provider: provider}
}

// Validate scans text for ticker tokens and returns both the literal
// matches (case preserved, deduplicated in first-seen order) and the
// uppercase subset present in the catalog.
func (v *Validator) Validate(ctx context.Context, text string) (social.ValidationResult, error) {
	catalog, err := v.provider.All(ctx)
	if err != nil {
		return social.ValidationResult{}, err
	}

	found := extractSymbols(text)
	relevant := make(map[string]struct{})
	for _, s := range found {
		upper := strings.ToUpper(s)
		if _, ok := catalog[upper]; ok {
			relevant[upper] = struct{}{}
		}
	}

	return social.ValidationResult{
		SymbolsFound:    found,
		RelevantSymbols: relevant,
	}, nil
}

func extractSymbols(text string) []string {
	matches := symbolPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		token := m[1]
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
