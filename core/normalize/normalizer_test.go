package normalize

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/gaurav-prasanna/marc2csv/core/fieldmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenLemmatizer struct{}

func (brokenLemmatizer) Lemmatize(string) ([]string, error) {
	return nil, errors.New("model crashed")
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"Dějiny", "Evropy", "1918", "1945"}, Tokenize("Dějiny Evropy, 1918-1945 :"))
	assert.Empty(t, Tokenize(" -- / : "))
}

func TestNormalize_OneOutputPerInput(t *testing.T) {
	p := New(nil, fieldmap.Options{})

	got, err := p.Normalize([]string{"The Old Man and the Sea /", "", "Moby-Dick\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the old man and the sea", "", "moby dick"}, got)
}

func TestNormalize_EmptyInput(t *testing.T) {
	got, err := New(nil, fieldmap.Options{}).Normalize(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNormalize_MinWordLength(t *testing.T) {
	p := New(nil, fieldmap.Options{MinWordLength: 3})

	got, err := p.Normalize([]string{"go to the sea"})
	require.NoError(t, err)
	assert.Equal(t, []string{"the sea"}, got)
}

func TestNormalize_MaxWordLength(t *testing.T) {
	p := New(nil, fieldmap.Options{MaxWordLength: 4})

	got, err := p.Normalize([]string{"short and extraordinarily long"})
	require.NoError(t, err)
	assert.Equal(t, []string{"and long"}, got)
}

func TestNormalize_StopWords(t *testing.T) {
	p := New(nil, fieldmap.Options{StopWords: []string{"the", "And"}, MinWordLength: 3})

	got, err := p.Normalize([]string{"The Old Man And the Sea"})
	require.NoError(t, err)
	// "The" survives the case-sensitive first pass, then is dropped once
	// lower-cased; "And" is only matched before lowering.
	assert.Equal(t, []string{"old man sea"}, got)
}

func TestNormalize_DictionaryLemmatizer(t *testing.T) {
	lem := NewDictionaryLemmatizer(map[string]string{
		"dějiny":  "dějiny",
		"Evropy":  "Evropa",
		"válkách": "válka",
	})
	p := New(lem, fieldmap.Options{})

	got, err := p.Normalize([]string{"Dějiny Evropy ve válkách"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dějiny evropa ve válka"}, got)
}

func TestNormalize_FoldAccentsAndMarkup(t *testing.T) {
	p := New(nil, fieldmap.Options{FoldAccents: true, StripMarkup: true})

	got, err := p.Normalize([]string{"<i>Česká</i> kniha &amp; příběh"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ceska kniha pribeh"}, got)
}

func TestNormalize_DecomposedInputIsComposed(t *testing.T) {
	p := New(nil, fieldmap.Options{StopWords: []string{"\u00e9"}})

	// "e" + combining acute, as found in some MARC-8 conversions.
	got, err := p.Normalize([]string{"e\u0301 cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, []string{"caf\u00e9"}, got)
}

func TestNormalize_FailurePolicy(t *testing.T) {
	t.Run("skip and log by default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		p := New(brokenLemmatizer{}, fieldmap.Options{}, WithLogger(logger))

		got, err := p.Normalize([]string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"", ""}, got)
		assert.Contains(t, buf.String(), "model crashed")
	})

	t.Run("fail fast", func(t *testing.T) {
		p := New(brokenLemmatizer{}, fieldmap.Options{}, WithFailFast(true))

		_, err := p.Normalize([]string{"a"})
		assert.ErrorIs(t, err, core.ErrNormalize)
	})
}

func TestStripMarkup(t *testing.T) {
	plain, err := StripMarkup("no markup here")
	require.NoError(t, err)
	assert.Equal(t, "no markup here", plain)

	text, err := StripMarkup("<b>Bold</b> &lt;tag&gt;")
	require.NoError(t, err)
	assert.Equal(t, "Bold <tag>", text)
}

func TestLoadLexicon(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "lex.tsv")
		require.NoError(t, os.WriteFile(path, []byte("# comment\nknihy\tkniha\tNNFP1\nknihy\tknih\n\nlesy\tles\r\n"), 0o644))

		lem, err := LoadLexicon(path)
		require.NoError(t, err)
		assert.Equal(t, 2, lem.Size())

		got, err := lem.Lemmatize("Knihy a lesy")
		require.NoError(t, err)
		assert.Equal(t, []string{"kniha", "a", "les"}, got)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLexicon(filepath.Join(dir, "missing.tsv"))
		assert.ErrorIs(t, err, core.ErrTaggerInit)
	})

	t.Run("malformed line", func(t *testing.T) {
		path := filepath.Join(dir, "bad.tsv")
		require.NoError(t, os.WriteFile(path, []byte("knihy kniha\n"), 0o644))
		_, err := LoadLexicon(path)
		assert.ErrorIs(t, err, core.ErrTaggerInit)
	})

	t.Run("empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.tsv")
		require.NoError(t, os.WriteFile(path, []byte("# nothing\n"), 0o644))
		_, err := LoadLexicon(path)
		assert.ErrorIs(t, err, core.ErrTaggerInit)
	})
}
