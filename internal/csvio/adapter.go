// Package csvio implements a schema-validated, lazily-produced record
// stream over delimited files. Record types plug in through a small
// Adapter value; the reader and writer engines stay fully generic.
package csvio

// Adapter maps one record type to and from delimited rows.
type Adapter[T any] interface {
	// Headers returns the expected column names, in order
	Headers() []string

	// FromRecord decodes one row's fields into a record.
	// Implementations must reject a field count that does not match Headers.
	FromRecord(fields []string) (T, error)

	// ToLines encodes one record into zero or more output lines.
	// A record may fan out to several rows.
	ToLines(item T) []string
}
