package csvio

import (
	"bufio"
	"context"
	"iter"
	"os"
	"strings"

	"stocksent/pkg/errors"
)

// WriteLines writes the header row followed by every line each record
// encodes to. The writer flushes after each record, favoring per-item
// durability over raw throughput. Any I/O failure is fatal to the whole
// write; a source error ends the write and is returned as-is.
func WriteLines[T any](ctx context.Context, items iter.Seq2[T, error], adapter Adapter[T], path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create output file %q", path)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(strings.Join(adapter.Headers(), ",") + "\n"); err != nil {
		return errors.Wrapf(err, "error writing header to file %q", path)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "error writing header to file %q", path)
	}

	for item, err := range items {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, line := range adapter.ToLines(item) {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return errors.Wrapf(err, "error writing line to file %q", path)
			}
		}
		if err := w.Flush(); err != nil {
			return errors.Wrapf(err, "error writing to file %q", path)
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "error flushing file %q", path)
	}
	return file.Sync()
}
