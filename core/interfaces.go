// Package core defines the conversion pipeline types and interfaces for marc2csv.
// Each stage of the pipeline is a clean, testable interface.
package core

// RecordMarker is the literal prefix of the first line of every record.
const RecordMarker = "LEADER"

// LemmaSuffix is appended to a field tag to name its normalized column.
const LemmaSuffix = "_lemm"

// DefaultSeparator joins multi-valued fields in one output cell.
const DefaultSeparator = "$|$"

// Block is one record: the raw lines between two record markers,
// each line still carrying its terminator.
type Block []string

// Fields maps an output column name to its values in input order.
type Fields map[string][]string

// Row maps an output column name to its joined cell value.
type Row map[string]string

// Lemmatizer turns free text into a sequence of lemmas.
type Lemmatizer interface {
	Lemmatize(text string) ([]string, error)
}

// Normalizer maps each input value to exactly one normalized value.
type Normalizer interface {
	Normalize(values []string) ([]string, error)
}

// Encoder serializes rows to a sink in one tabular format.
type Encoder interface {
	// WriteHeader writes the column names; called once before any row.
	WriteHeader(columns []string) error
	// WriteRows writes cells already ordered like the header.
	WriteRows(rows [][]string) error
	// Flush pushes buffered bytes to the underlying sink.
	Flush() error
	// Extension returns the file extension for this format (e.g. ".csv").
	Extension() string
}
