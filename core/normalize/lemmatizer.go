package normalize

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/gaurav-prasanna/marc2csv/core"
)

// Tokenize splits text into words along Unicode word boundaries
// (UAX #29), dropping whitespace and punctuation-only segments.
func Tokenize(text string) []string {
	var out []string
	tokens := words.FromString(text)
	for tokens.Next() {
		tok := tokens.Value()
		if isWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isWord(tok string) bool {
	for _, r := range tok {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// TokenLemmatizer tokenizes without changing word forms. It is used when
// no tagger model is configured.
type TokenLemmatizer struct{}

// Lemmatize implements core.Lemmatizer.
func (TokenLemmatizer) Lemmatize(text string) ([]string, error) {
	return Tokenize(text), nil
}

// DictionaryLemmatizer replaces each word with its lemma from a lexicon.
// Words missing from the lexicon are kept as they are.
type DictionaryLemmatizer struct {
	lemmas map[string]string
}

// NewDictionaryLemmatizer builds a lemmatizer from an in-memory lexicon
// of form → lemma pairs.
func NewDictionaryLemmatizer(lemmas map[string]string) *DictionaryLemmatizer {
	return &DictionaryLemmatizer{lemmas: lemmas}
}

// LoadLexicon reads a tagger lexicon: one "form<TAB>lemma[<TAB>tag]" entry
// per line, '#' starts a comment line. The first lemma listed for a form wins.
func LoadLexicon(path string) (*DictionaryLemmatizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading tagger %s: %v: %w", path, err, core.ErrTaggerInit)
	}
	defer f.Close()

	lemmas := make(map[string]string)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("loading tagger %s: line %d: expected form<TAB>lemma: %w", path, lineNo, core.ErrTaggerInit)
		}
		if _, exists := lemmas[parts[0]]; !exists {
			lemmas[parts[0]] = parts[1]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("loading tagger %s: %v: %w", path, err, core.ErrTaggerInit)
	}
	if len(lemmas) == 0 {
		return nil, fmt.Errorf("loading tagger %s: lexicon is empty: %w", path, core.ErrTaggerInit)
	}

	return NewDictionaryLemmatizer(lemmas), nil
}

// Lemmatize implements core.Lemmatizer. Lookup tries the exact form first,
// then its lower-case form so sentence-initial capitals still resolve.
func (d *DictionaryLemmatizer) Lemmatize(text string) ([]string, error) {
	toks := Tokenize(text)
	for i, tok := range toks {
		if lemma, ok := d.lemmas[tok]; ok {
			toks[i] = lemma
			continue
		}
		if lemma, ok := d.lemmas[strings.ToLower(tok)]; ok {
			toks[i] = lemma
		}
	}
	return toks, nil
}

// Size returns the number of forms in the lexicon.
func (d *DictionaryLemmatizer) Size() int {
	return len(d.lemmas)
}
