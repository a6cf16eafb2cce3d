package fieldmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Section and key names shared by the .ini and .yaml layouts.
const (
	SectionFields        = "FIELDS"
	SectionPreprocessing = "PREPROCESSING"

	KeyLemmatizeFields = "LEMMATIZE_FIELDS"
	KeyStopWords       = "STOP_WORDS"
	KeyTagger          = "TAGGER"
	KeyMinWordLength   = "MIN_WORD_LENGTH"
	KeyMaxWordLength   = "MAX_WORD_LENGTH"
	KeyFoldAccents     = "FOLD_ACCENTS"
	KeyStripMarkup     = "STRIP_MARKUP"
)

// Load reads a field map from an .ini or .yaml/.yml file.
func Load(path string) (*FieldMap, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s: %w", path, core.ErrInputNotFound)
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return loadINI(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, fmt.Errorf("config file %s: expected .ini, .yaml or .yml: %w", path, core.ErrFormatMismatch)
	}
}

func loadINI(path string) (*FieldMap, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	sec, err := f.GetSection(SectionFields)
	if err != nil {
		return nil, fmt.Errorf("config %s: [%s]: %w", path, SectionFields, core.ErrConfigMissingSection)
	}
	var fields []Field
	for _, k := range sec.Keys() {
		fields = append(fields, Field{Tag: k.Name(), Prefixes: strings.Fields(k.String())})
	}

	var (
		lemmatize []string
		opts      Options
	)
	if pre, err := f.GetSection(SectionPreprocessing); err == nil {
		if k := lookupKey(pre, KeyLemmatizeFields); k != nil {
			lemmatize = strings.Fields(k.String())
		}
		if k := lookupKey(pre, KeyStopWords); k != nil {
			opts.StopWords = ParseStopWords(k.String())
		}
		if k := lookupKey(pre, KeyTagger); k != nil {
			opts.Tagger = strings.TrimSpace(k.String())
		}
		if k := lookupKey(pre, KeyMinWordLength); k != nil {
			if opts.MinWordLength, err = k.Int(); err != nil {
				return nil, fmt.Errorf("config %s: %s: %v: %w", path, KeyMinWordLength, err, core.ErrConfigInvalid)
			}
		}
		if k := lookupKey(pre, KeyMaxWordLength); k != nil {
			if opts.MaxWordLength, err = k.Int(); err != nil {
				return nil, fmt.Errorf("config %s: %s: %v: %w", path, KeyMaxWordLength, err, core.ErrConfigInvalid)
			}
		}
		if k := lookupKey(pre, KeyFoldAccents); k != nil {
			if opts.FoldAccents, err = k.Bool(); err != nil {
				return nil, fmt.Errorf("config %s: %s: %v: %w", path, KeyFoldAccents, err, core.ErrConfigInvalid)
			}
		}
		if k := lookupKey(pre, KeyStripMarkup); k != nil {
			if opts.StripMarkup, err = k.Bool(); err != nil {
				return nil, fmt.Errorf("config %s: %s: %v: %w", path, KeyStripMarkup, err, core.ErrConfigInvalid)
			}
		}
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("config %s: [%s] declares no fields: %w", path, SectionFields, core.ErrConfigMissingKey)
	}

	fm, err := New(fields, lemmatize, opts)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return fm, nil
}

// lookupKey finds a key ignoring case, as configparser does.
func lookupKey(sec *ini.Section, name string) *ini.Key {
	for _, k := range sec.Keys() {
		if strings.EqualFold(k.Name(), name) {
			return k
		}
	}
	return nil
}

// yamlPreprocessing mirrors the PREPROCESSING section in YAML form.
type yamlPreprocessing struct {
	LemmatizeFields wordList `yaml:"lemmatize_fields"`
	StopWords       wordList `yaml:"stop_words"`
	Tagger          string   `yaml:"tagger"`
	MinWordLength   int      `yaml:"min_word_length"`
	MaxWordLength   int      `yaml:"max_word_length"`
	FoldAccents     bool     `yaml:"fold_accents"`
	StripMarkup     bool     `yaml:"strip_markup"`
}

// wordList accepts either a sequence or a single space-separated scalar
// that may contain "quoted phrases".
type wordList []string

func (w *wordList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*w = ParseStopWords(n.Value)
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar", item.Line)
			}
			out = append(out, item.Value)
		}
		*w = out
	default:
		return fmt.Errorf("line %d: expected a list or a string", n.Line)
	}
	return nil
}

func loadYAML(path string) (*FieldMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config %s: [%s]: %w", path, SectionFields, core.ErrConfigMissingSection)
	}
	root := doc.Content[0]

	fieldsNode := mappingValue(root, SectionFields)
	if fieldsNode == nil || fieldsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("config %s: [%s]: %w", path, SectionFields, core.ErrConfigMissingSection)
	}
	var fields []Field
	for i := 0; i+1 < len(fieldsNode.Content); i += 2 {
		tag, val := fieldsNode.Content[i].Value, fieldsNode.Content[i+1]
		var prefixes []string
		switch val.Kind {
		case yaml.ScalarNode:
			prefixes = strings.Fields(val.Value)
		case yaml.SequenceNode:
			for _, item := range val.Content {
				prefixes = append(prefixes, item.Value)
			}
		default:
			return nil, fmt.Errorf("config %s: field %s: line %d: %w", path, tag, val.Line, core.ErrConfigInvalid)
		}
		fields = append(fields, Field{Tag: tag, Prefixes: prefixes})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("config %s: [%s] declares no fields: %w", path, SectionFields, core.ErrConfigMissingKey)
	}

	var pre yamlPreprocessing
	if n := mappingValue(root, SectionPreprocessing); n != nil {
		if err := n.Decode(&pre); err != nil {
			return nil, fmt.Errorf("config %s: [%s]: %v: %w", path, SectionPreprocessing, err, core.ErrConfigInvalid)
		}
	}

	fm, err := New(fields, pre.LemmatizeFields, Options{
		StopWords:     pre.StopWords,
		MinWordLength: pre.MinWordLength,
		MaxWordLength: pre.MaxWordLength,
		Tagger:        pre.Tagger,
		FoldAccents:   pre.FoldAccents,
		StripMarkup:   pre.StripMarkup,
	})
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return fm, nil
}

// mappingValue returns the value node for key, matched case-insensitively.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if strings.EqualFold(m.Content[i].Value, key) {
			return m.Content[i+1]
		}
	}
	return nil
}

var quotedPhrase = regexp.MustCompile(`"[^"]*"`)

// ParseStopWords splits a stop-word declaration into words. Double-quoted
// phrases are kept whole (without quotes); everything else splits on spaces.
func ParseStopWords(s string) []string {
	var words []string
	for _, q := range quotedPhrase.FindAllString(s, -1) {
		words = append(words, strings.Trim(q, `"`))
	}
	return append(words, strings.Fields(quotedPhrase.ReplaceAllString(s, ""))...)
}
