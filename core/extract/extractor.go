// Package extract pulls configured subfield values out of a record block.
//
// Each line is a field: a leading tag token followed by free text holding
// zero or more "$<code><text>" subfields. Lines whose tag is not configured,
// empty lines and malformed lines contribute nothing; extraction never
// fails on content.
package extract

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/fieldmap"
)

// SubfieldMarker opens a subfield inside a field line.
const SubfieldMarker = '$'

// Subfield is one subfield chunk of a line. Code is empty when the marker
// is followed by whitespace or ends the line.
type Subfield struct {
	Code string
	Text string
}

// Extractor applies a FieldMap to record blocks.
type Extractor struct {
	fields     *fieldmap.FieldMap
	normalizer core.Normalizer
}

// New creates an Extractor. normalizer may be nil when no field is
// lemmatized; otherwise it produces the "<tag>_lemm" columns.
func New(fields *fieldmap.FieldMap, normalizer core.Normalizer) *Extractor {
	return &Extractor{fields: fields, normalizer: normalizer}
}

// Extract runs Extract with the Extractor's configuration.
func (e *Extractor) Extract(block core.Block) (core.Fields, error) {
	return Extract(block, e.fields, e.normalizer)
}

// Extract maps each configured tag found in block to its subfield values.
// Repeated fields append in line order; values keep their in-line order.
// A nil normalizer copies values to the lemmatized columns unchanged.
func Extract(block core.Block, fm *fieldmap.FieldMap, n core.Normalizer) (core.Fields, error) {
	out := make(core.Fields)

	for _, raw := range block {
		line := strings.TrimRight(raw, "\r\n")
		tag, ok := Tag(line)
		if !ok {
			continue
		}
		prefixes, ok := fm.Prefixes(tag)
		if !ok {
			continue
		}

		subfields := ScanSubfields(line)
		lemmatized := fm.Lemmatized(tag)
		lemmaCol := fieldmap.LemmaColumn(tag)

		for _, prefix := range prefixes {
			vals := filter(subfields, prefix)
			out[tag] = append(out[tag], vals...)

			if !lemmatized {
				continue
			}
			norm := vals
			if n != nil {
				var err error
				if norm, err = n.Normalize(vals); err != nil {
					return nil, fmt.Errorf("normalizing field %s: %w", tag, err)
				}
			}
			out[lemmaCol] = append(out[lemmaCol], norm...)
		}

		// A configured line always registers its columns, even without values.
		if _, seen := out[tag]; !seen {
			out[tag] = []string{}
		}
		if _, seen := out[lemmaCol]; lemmatized && !seen {
			out[lemmaCol] = []string{}
		}
	}

	return out, nil
}

// Tag returns the leading whitespace-delimited token of line. Lines that
// are empty or start with whitespace have no tag.
func Tag(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	if r, _ := utf8.DecodeRuneInString(line); unicode.IsSpace(r) {
		return "", false
	}
	if end := strings.IndexFunc(line, unicode.IsSpace); end >= 0 {
		return line[:end], true
	}
	return line, true
}

// ScanSubfields splits line into subfields in a single pass. A subfield is
// the marker, an optional one-character code (any non-space character) and
// the text up to the next marker or end of line. Text before the first
// marker is ignored.
func ScanSubfields(line string) []Subfield {
	start := strings.IndexByte(line, SubfieldMarker)
	if start < 0 {
		return nil
	}

	var out []Subfield
	for start >= 0 {
		pos := start + 1
		var code string
		if pos < len(line) {
			r, size := utf8.DecodeRuneInString(line[pos:])
			if !unicode.IsSpace(r) {
				code = line[pos : pos+size]
				pos += size
			}
		}

		next := strings.IndexByte(line[pos:], SubfieldMarker)
		if next < 0 {
			out = append(out, Subfield{Code: code, Text: line[pos:]})
			break
		}
		out = append(out, Subfield{Code: code, Text: line[pos : pos+next]})
		start = pos + next
	}
	return out
}

// filter keeps the text of subfields whose code starts with prefix.
func filter(subfields []Subfield, prefix string) []string {
	vals := make([]string, 0, len(subfields))
	for _, sf := range subfields {
		if strings.HasPrefix(sf.Code, prefix) {
			vals = append(vals, sf.Text)
		}
	}
	return vals
}
