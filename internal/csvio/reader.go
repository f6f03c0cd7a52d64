package csvio

import (
	"bufio"
	"context"
	"iter"
	"os"
	"strings"

	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// maxLineBytes bounds a single input line; posts can be long but not huge.
const maxLineBytes = 1024 * 1024

// ReadLines opens path and returns a lazy, single-pass sequence of decoded
// records. The file is read incrementally, so downstream stages start
// before the file is fully consumed.
//
// The first row must match the adapter's headers exactly, in order,
// case-insensitively; a mismatch ends the sequence with a schema error.
// A blank header row falls back to the adapter's declared order with a
// warning. Blank data lines are skipped. A field-count mismatch aborts the
// read: it indicates corruption, not a bad record.
//
// Any fatal condition is yielded as the terminal element's error.
func ReadLines[T any](ctx context.Context, path string, adapter Adapter[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		file, err := os.Open(path)
		if err != nil {
			yield(zero, errors.Wrapf(err, "failed to open csv file %q", path))
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

		// Empty file yields an empty sequence
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				yield(zero, errors.Wrapf(err, "error reading header from %q", path))
			}
			return
		}

		headerLine := scanner.Text()
		want := adapter.Headers()
		columns := len(want)
		if strings.TrimSpace(headerLine) == "" {
			logger.Warnf("No header line found in file %q. Assuming column order matches adapter headers.", path)
		} else {
			got := ParseLine(headerLine)
			if err := matchHeaders(got, want); err != nil {
				yield(zero, errors.NewSchemaError(path, "header row does not match adapter", err))
				return
			}
		}

		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := scanner.Text()
			if strings.TrimSpace(line) == "" {
				continue
			}
			fields := ParseLine(line)
			if len(fields) != columns {
				yield(zero, errors.NewSchemaError(path, "field count mismatch at line: "+line, errors.ErrFieldCount))
				return
			}
			item, err := adapter.FromRecord(fields)
			if err != nil {
				yield(zero, errors.Wrapf(err, "failed to decode row in %q", path))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(zero, errors.Wrapf(err, "error reading line from file %q", path))
		}
	}
}

func matchHeaders(got, want []string) error {
	if len(got) != len(want) {
		return errors.Wrapf(errors.ErrSchemaMismatch, "expected %d columns, found %d", len(want), len(got))
	}
	for i := range want {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want[i]) {
			return errors.Wrapf(errors.ErrSchemaMismatch, "column %d: expected %q, found %q", i, want[i], got[i])
		}
	}
	return nil
}
