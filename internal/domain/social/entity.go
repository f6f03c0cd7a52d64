package social

import (
	"time"

	"github.com/shopspring/decimal"
)

// Post is one social-media message about stock symbols, as decoded from
// the input feed. Immutable once constructed.
type Post struct {
	OwnerID     int
	MessageText string
	CreateTime  time.Time
}

// UserMetadata describes the author of a post. Loaded once per run and
// read-only afterwards.
type UserMetadata struct {
	UserID       int
	Level        string
	MonthsActive int
	TwoYearGain  decimal.Decimal
}

// SentimentRequest is a Post merged with its owner's metadata. It is never
// constructed for an owner that has no metadata.
type SentimentRequest struct {
	OwnerID      int
	MessageText  string
	CreateTime   time.Time
	Level        string
	TwoYearGain  decimal.Decimal
	MonthsActive int
}

// ValidationResult holds the ticker symbols extracted from one message.
// SymbolsFound preserves the case as written; RelevantSymbols are the
// uppercase catalog-matched subset.
type ValidationResult struct {
	SymbolsFound    []string
	RelevantSymbols map[string]struct{}
}

// HasRelevantSymbol reports whether at least one found symbol is in the catalog.
func (v ValidationResult) HasRelevantSymbol() bool {
	return len(v.RelevantSymbols) > 0
}

// SentimentResponse pairs a request with the per-symbol scores the oracle
// produced for it. Every key in Scores is a member of the request's
// relevant symbols; scores for symbols the oracle invented are discarded
// before the response is built.
type SentimentResponse struct {
	Request SentimentRequest
	Scores  map[string]int
}
