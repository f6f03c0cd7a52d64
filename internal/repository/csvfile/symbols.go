// Package csvfile implements the symbol catalog and user metadata
// providers on top of delimited files. Both load once under a mutual
// exclusion guard and are read-only afterwards.
package csvfile

import (
	"context"
	"strings"
	"sync"

	"stocksent/internal/csvio"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// SymbolRepository serves the catalog of recognized ticker symbols from a
// single-column CSV. The first caller loads the file; concurrent callers
// wait; later callers short-circuit on the loaded flag.
type SymbolRepository struct {
	path string
	log  *logger.Logger

	mu      sync.RWMutex
	loaded  bool
	symbols map[string]struct{}
}

// NewSymbolRepository creates a symbol repository backed by the CSV at path.
func NewSymbolRepository(path string, log *logger.Logger) *SymbolRepository {
	return &SymbolRepository{
		path:    path,
		log:     log.With("component", "symbol_repository"),
		symbols: make(map[string]struct{}),
	}
}

// All returns a copy of the full symbol set, uppercase-folded.
func (r *SymbolRepository) All(ctx context.Context) (map[string]struct{}, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.symbols))
	for s := range r.symbols {
		out[s] = struct{}{}
	}
	return out, nil
}

// Contains reports whether symbol (any case) is in the catalog.
func (r *SymbolRepository) Contains(ctx context.Context, symbol string) (bool, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.symbols[strings.ToUpper(symbol)]
	return ok, nil
}

func (r *SymbolRepository) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	if r.loaded {
		r.mu.RUnlock()
		return nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	for symbol, err := range csvio.ReadLines(ctx, r.path, symbolAdapter{}) {
		if err != nil {
			return errors.Wrap(err, "failed to load symbol catalog")
		}
		if symbol != "" {
			r.symbols[strings.ToUpper(symbol)] = struct{}{}
		}
	}
	r.loaded = true
	r.log.Infof("Loaded %d symbols from CSV file: %s", len(r.symbols), r.path)
	return nil
}

type symbolAdapter struct{}

func (symbolAdapter) Headers() []string { return []string{"Symbol"} }

func (symbolAdapter) FromRecord(fields []string) (string, error) {
	if len(fields) != 1 {
		return "", errors.Wrapf(errors.ErrFieldCount, "expected 1 field, got %d", len(fields))
	}
	return fields[0], nil
}

// ToLines is unused; the catalog is read-only.
func (symbolAdapter) ToLines(string) []string { return nil }
