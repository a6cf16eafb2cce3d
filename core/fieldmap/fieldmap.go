// Package fieldmap holds the immutable tag → subfield mapping that drives
// extraction, plus the normalization options loaded with it.
package fieldmap

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gaurav-prasanna/marc2csv/core"
)

// Field is one configured field tag and the subfield prefixes kept for it,
// in declaration order.
type Field struct {
	Tag      string
	Prefixes []string
}

// Options configure the normalization pipeline.
type Options struct {
	StopWords     []string
	MinWordLength int // 0 disables the filter
	MaxWordLength int // 0 disables the filter
	Tagger        string
	FoldAccents   bool
	StripMarkup   bool
}

// FieldMap is built once per run and never mutated afterwards.
type FieldMap struct {
	fields    []Field
	index     map[string]int
	lemmaTags []string
	lemmatize map[string]bool
	options   Options
}

// New validates the declaration and returns a FieldMap.
// Every tag in lemmatize must also be declared in fields.
func New(fields []Field, lemmatize []string, opts Options) (*FieldMap, error) {
	fm := &FieldMap{
		index:     make(map[string]int, len(fields)),
		lemmatize: make(map[string]bool, len(lemmatize)),
		options:   cloneOptions(opts),
	}

	for _, f := range fields {
		if f.Tag == "" {
			return nil, fmt.Errorf("empty field tag: %w", core.ErrConfigInvalid)
		}
		if _, dup := fm.index[f.Tag]; dup {
			return nil, fmt.Errorf("field %s declared twice: %w", f.Tag, core.ErrConfigInvalid)
		}
		prefixes := make([]string, 0, len(f.Prefixes))
		for _, p := range f.Prefixes {
			p = strings.TrimPrefix(p, "$")
			if utf8.RuneCountInString(p) > 1 {
				return nil, fmt.Errorf("field %s: subfield prefix %q longer than one character: %w",
					f.Tag, p, core.ErrConfigInvalid)
			}
			prefixes = append(prefixes, p)
		}
		fm.index[f.Tag] = len(fm.fields)
		fm.fields = append(fm.fields, Field{Tag: f.Tag, Prefixes: prefixes})
	}

	for _, tag := range lemmatize {
		if _, ok := fm.index[tag]; !ok {
			return nil, fmt.Errorf("lemmatized field %s is not a configured field: %w", tag, core.ErrConfigInvalid)
		}
		if fm.lemmatize[tag] {
			continue
		}
		fm.lemmatize[tag] = true
		fm.lemmaTags = append(fm.lemmaTags, tag)
	}

	if opts.MinWordLength < 0 || opts.MaxWordLength < 0 {
		return nil, fmt.Errorf("negative word length limit: %w", core.ErrConfigInvalid)
	}
	if opts.MaxWordLength > 0 && opts.MinWordLength > opts.MaxWordLength {
		return nil, fmt.Errorf("min word length %d exceeds max %d: %w",
			opts.MinWordLength, opts.MaxWordLength, core.ErrConfigInvalid)
	}

	return fm, nil
}

// Prefixes returns the subfield prefixes for tag and whether tag is configured.
func (fm *FieldMap) Prefixes(tag string) ([]string, bool) {
	i, ok := fm.index[tag]
	if !ok {
		return nil, false
	}
	return fm.fields[i].Prefixes, true
}

// Lemmatized reports whether tag also produces a normalized column.
func (fm *FieldMap) Lemmatized(tag string) bool {
	return fm.lemmatize[tag]
}

// NeedsNormalizer reports whether any field is lemmatized.
func (fm *FieldMap) NeedsNormalizer() bool {
	return len(fm.lemmaTags) > 0
}

// Tags returns the configured field tags in declaration order.
func (fm *FieldMap) Tags() []string {
	tags := make([]string, len(fm.fields))
	for i, f := range fm.fields {
		tags[i] = f.Tag
	}
	return tags
}

// Columns returns the output header: normalized columns first, in the order
// the lemmatized fields were declared, then every primary field column.
func (fm *FieldMap) Columns() []string {
	cols := make([]string, 0, len(fm.lemmaTags)+len(fm.fields))
	for _, tag := range fm.lemmaTags {
		cols = append(cols, LemmaColumn(tag))
	}
	return append(cols, fm.Tags()...)
}

// Options returns a copy of the normalization options.
func (fm *FieldMap) Options() Options {
	return cloneOptions(fm.options)
}

// LemmaColumn names the normalized column derived from tag.
func LemmaColumn(tag string) string {
	return tag + core.LemmaSuffix
}

func cloneOptions(o Options) Options {
	o.StopWords = append([]string(nil), o.StopWords...)
	return o
}
