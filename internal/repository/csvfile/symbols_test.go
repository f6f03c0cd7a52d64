package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSymbolRepository(t *testing.T) {
	ctx := context.Background()
	log := logger.Get()

	t.Run("case folds and deduplicates", func(t *testing.T) {
		path := writeFile(t, "symbols.csv", "Symbol\nAAPL\naapl\n\nGOOGL\n")
		repo := NewSymbolRepository(path, log)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Contains(t, all, "AAPL")
		assert.Contains(t, all, "GOOGL")
	})

	t.Run("contains is case-insensitive", func(t *testing.T) {
		path := writeFile(t, "symbols.csv", "Symbol\nAAPL\n")
		repo := NewSymbolRepository(path, log)

		ok, err := repo.Contains(ctx, "aapl")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Contains(ctx, "TSLA")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong header fails load", func(t *testing.T) {
		path := writeFile(t, "symbols.csv", "Ticker\nAAPL\n")
		repo := NewSymbolRepository(path, log)

		_, err := repo.All(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
	})

	t.Run("loads once under concurrent access", func(t *testing.T) {
		path := writeFile(t, "symbols.csv", "Symbol\nAAPL\nMSFT\n")
		repo := NewSymbolRepository(path, log)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				all, err := repo.All(ctx)
				assert.NoError(t, err)
				assert.Len(t, all, 2)
			}()
		}
		wg.Wait()

		// A later call short-circuits even if the file disappears
		require.NoError(t, os.Remove(path))
		all, err := repo.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("returned set is a copy", func(t *testing.T) {
		path := writeFile(t, "symbols.csv", "Symbol\nAAPL\n")
		repo := NewSymbolRepository(path, log)

		all, err := repo.All(ctx)
		require.NoError(t, err)
		delete(all, "AAPL")

		ok, err := repo.Contains(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
