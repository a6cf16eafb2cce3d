// Package normalize implements the Normalizer interface.
// It turns raw subfield values into lemmatized, filtered, lower-cased text
// for the "<tag>_lemm" output columns. Lemmatization itself sits behind
// core.Lemmatizer so extraction never depends on a particular tagger.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/fieldmap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Pipeline normalizes values one by one: NFC, optional markup stripping,
// lemmatization, word filtering, lower-casing, filtering again, and
// optional accent folding. It keeps no state between calls.
type Pipeline struct {
	lemmatizer  core.Lemmatizer
	stopWords   map[string]struct{}
	minLen      int
	maxLen      int
	foldAccents bool
	stripMarkup bool
	failFast    bool
	logger      *slog.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used to report skipped values.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithFailFast makes any per-value failure abort the call instead of
// being logged and replaced with an empty value.
func WithFailFast(on bool) Option {
	return func(p *Pipeline) { p.failFast = on }
}

// New creates a Pipeline. A nil lemmatizer only tokenizes.
func New(lemmatizer core.Lemmatizer, opts fieldmap.Options, options ...Option) *Pipeline {
	if lemmatizer == nil {
		lemmatizer = TokenLemmatizer{}
	}
	p := &Pipeline{
		lemmatizer:  lemmatizer,
		stopWords:   make(map[string]struct{}, len(opts.StopWords)),
		minLen:      opts.MinWordLength,
		maxLen:      opts.MaxWordLength,
		foldAccents: opts.FoldAccents,
		stripMarkup: opts.StripMarkup,
		logger:      slog.Default(),
	}
	for _, w := range opts.StopWords {
		p.stopWords[w] = struct{}{}
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// Normalize implements core.Normalizer. It returns exactly one output
// value per input value, in the same order.
func (p *Pipeline) Normalize(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, err := p.normalizeOne(v)
		if err != nil {
			if p.failFast {
				return nil, fmt.Errorf("normalizing %q: %v: %w", v, err, core.ErrNormalize)
			}
			p.logger.Warn("value skipped by normalization", "value", v, "error", err)
			s = ""
		}
		out = append(out, s)
	}
	return out, nil
}

func (p *Pipeline) normalizeOne(v string) (string, error) {
	text := norm.NFC.String(strings.TrimRight(v, "\n"))

	if p.stripMarkup {
		var err error
		if text, err = StripMarkup(text); err != nil {
			return "", err
		}
	}

	lemmas, err := p.lemmatizer.Lemmatize(text)
	if err != nil {
		return "", fmt.Errorf("lemmatizing: %w", err)
	}

	kept := p.removeWords(lemmas)
	lowered := cases.Lower(language.Und).String(strings.Join(kept, " "))
	// Stop words written in lower case only match after lowering.
	result := strings.Join(p.removeWords(strings.Fields(lowered)), " ")

	if p.foldAccents {
		result = FoldAccents(result)
	}
	return result, nil
}

// removeWords drops stop words and words outside the length limits.
// Stop-word matching is exact and case-sensitive; length counts runes.
func (p *Pipeline) removeWords(words []string) []string {
	if len(p.stopWords) == 0 && p.minLen == 0 && p.maxLen == 0 {
		return words
	}
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := p.stopWords[w]; stop {
			continue
		}
		n := utf8.RuneCountInString(w)
		if p.minLen > 0 && n < p.minLen {
			continue
		}
		if p.maxLen > 0 && n > p.maxLen {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}

// StripMarkup returns the text content of an HTML fragment, decoding
// entities. Strings with no markup characters are returned unchanged.
func StripMarkup(s string) (string, error) {
	if !strings.ContainsAny(s, "<&") {
		return s, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}
	return doc.Text(), nil
}

// FoldAccents removes combining marks (é → e, č → c).
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
