package social

import "context"

// SymbolProvider exposes the catalog of recognized ticker symbols.
// Implementations load once and serve an uppercase-folded set afterwards.
type SymbolProvider interface {
	// All returns the full set of known symbols, uppercase
	All(ctx context.Context) (map[string]struct{}, error)

	// Contains reports whether symbol (any case) is in the catalog
	Contains(ctx context.Context, symbol string) (bool, error)
}

// UserDataProvider resolves per-author metadata by user id.
type UserDataProvider interface {
	// Init eagerly loads the backing data; safe to call concurrently
	Init(ctx context.Context) error

	// Get returns the metadata for userID, or ok=false if the user is unknown
	Get(ctx context.Context, userID int) (UserMetadata, bool, error)
}

// Oracle is the external text-classification service. The pipeline treats
// it as an untrusted, possibly-slow, possibly-failing black box that turns
// a prompt plus message text into raw text.
type Oracle interface {
	// SetSystemPrompt fixes the system prompt used for subsequent calls
	SetSystemPrompt(prompt string)

	// Analyze sends the message text under the given system prompt and
	// returns the raw response text
	Analyze(ctx context.Context, systemPrompt, userText string) (string, error)
}
