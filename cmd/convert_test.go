package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `LEADER 00000nam a2200000 a 4500
001 000000001
245 10$aDějiny Evropy /$cJan Novák.
650 07$aHistory$xModern$2czenas
650 07$aEurope$2czenas
LEADER 00000nam a2200000 a 4500
001 000000002
245 00$aThe old man and the sea$bnovel
LEADER 00000nam a2200000 a 4500
001 000000003
650 07$aArt and design
`

const testConfig = `[FIELDS]
245 = $a
650 = $a $x

[PREPROCESSING]
LEMMATIZE_FIELDS = 650
STOP_WORDS = and
`

type fixture struct {
	dir    string
	config string
	input  string
}

func newFixture(t *testing.T, config string) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:    dir,
		config: filepath.Join(dir, "fields.ini"),
		input:  filepath.Join(dir, "catalog.mrc"),
	}
	require.NoError(t, os.WriteFile(fx.config, []byte(config), 0o644))
	require.NoError(t, os.WriteFile(fx.input, []byte(testCatalog), 0o644))
	return fx
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConvert_WritesCSV(t *testing.T) {
	fx := newFixture(t, testConfig)
	out := filepath.Join(fx.dir, "out", "catalog.csv")

	stdout, stderr, err := execute(t, "convert", "--config", fx.config, "--input", fx.input, "--output", out)
	require.NoError(t, err)

	assert.Equal(t, "650_lemm,245,650\r\n"+
		"history$|$modern$|$europe,Dějiny Evropy /,History$|$Modern$|$Europe\r\n"+
		",The old man and the sea,\r\n"+
		"art design,,Art and design\r\n", readFile(t, out))
	assert.Contains(t, stdout, "✓ Written: "+out+" (3 records)")
	assert.Contains(t, stderr, "total 3 records")
	assert.Contains(t, stderr, "3 of 3 records processed")
}

func TestConvert_DefaultOutputPath(t *testing.T) {
	fx := newFixture(t, testConfig)

	_, _, err := execute(t, "convert", "--config", fx.config, "--input", fx.input, "--format", "tsv")
	require.NoError(t, err)

	got := readFile(t, filepath.Join(fx.dir, "catalog.tsv"))
	assert.True(t, strings.HasPrefix(got, "650_lemm\t245\t650\r\n"))
}

func TestConvert_Stdout(t *testing.T) {
	fx := newFixture(t, testConfig)

	stdout, _, err := execute(t, "convert", "--config", fx.config, "--input", fx.input,
		"--output", "-", "--crlf=false", "--separator", "; ")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "history; modern; europe,Dějiny Evropy /,History; Modern; Europe", lines[1])
	assert.NotContains(t, stdout, "Written")
}

func TestConvert_JSONL(t *testing.T) {
	fx := newFixture(t, testConfig)

	stdout, _, err := execute(t, "convert", "--config", fx.config, "--input", fx.input,
		"--output", "-", "--format", "jsonl")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"650_lemm":"","245":"The old man and the sea","650":""}`, lines[1])
}

func TestConvert_StopWordsCanBeDisabled(t *testing.T) {
	fx := newFixture(t, testConfig)

	stdout, _, err := execute(t, "convert", "--config", fx.config, "--input", fx.input,
		"--output", "-", "--use-stop-words=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "art and design,,Art and design")
}

func TestConvert_TaggerLexicon(t *testing.T) {
	lexicon := filepath.Join(t.TempDir(), "lexicon.tsv")
	require.NoError(t, os.WriteFile(lexicon, []byte("history\tdějiny\tNNFP1\n"), 0o644))
	fx := newFixture(t, testConfig+"TAGGER = "+lexicon+"\n")

	stdout, _, err := execute(t, "convert", "--config", fx.config, "--input", fx.input, "--output", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dějiny$|$modern$|$europe,")
}

func TestConvert_EnvironmentOverrides(t *testing.T) {
	fx := newFixture(t, testConfig)
	t.Setenv("MARC2CSV_CONFIG", fx.config)
	t.Setenv("MARC2CSV_SEPARATOR", "|")

	stdout, _, err := execute(t, "convert", "--input", fx.input, "--output", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "History|Modern|Europe")
}

func TestConvert_ValidationFailsBeforeOutput(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		args    func(fx fixture) []string
		wantErr error
	}{
		{
			name:    "missing --config",
			config:  testConfig,
			args:    func(fx fixture) []string { return []string{"--input", fx.input} },
			wantErr: core.ErrConfigMissingKey,
		},
		{
			name:    "missing input file",
			config:  testConfig,
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", filepath.Join(fx.dir, "none.mrc")} },
			wantErr: core.ErrInputNotFound,
		},
		{
			name:   "wrong input extension",
			config: testConfig,
			args: func(fx fixture) []string {
				txt := filepath.Join(fx.dir, "catalog.txt")
				require.NoError(t, os.WriteFile(txt, []byte(testCatalog), 0o644))
				return []string{"--config", fx.config, "--input", txt}
			},
			wantErr: core.ErrFormatMismatch,
		},
		{
			name:    "missing FIELDS section",
			config:  "[PREPROCESSING]\nSTOP_WORDS = a\n",
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", fx.input} },
			wantErr: core.ErrConfigMissingSection,
		},
		{
			name:    "lemmatized field not declared",
			config:  "[FIELDS]\n245 = $a\n[PREPROCESSING]\nLEMMATIZE_FIELDS = 650\n",
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", fx.input} },
			wantErr: core.ErrConfigInvalid,
		},
		{
			name:    "unreadable tagger",
			config:  testConfig + "TAGGER = /nonexistent/lexicon.tsv\n",
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", fx.input} },
			wantErr: core.ErrTaggerInit,
		},
		{
			name:    "unknown format",
			config:  testConfig,
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", fx.input, "--format", "xlsx"} },
			wantErr: core.ErrFormatMismatch,
		},
		{
			name:    "unknown encoding",
			config:  testConfig,
			args:    func(fx fixture) []string { return []string{"--config", fx.config, "--input", fx.input, "--encoding", "klingon"} },
			wantErr: core.ErrFormatMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.config)

			_, _, err := execute(t, append([]string{"convert"}, tt.args(fx)...)...)
			assert.ErrorIs(t, err, tt.wantErr)

			entries, err := os.ReadDir(fx.dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.Contains(t, []string{"fields.ini", "catalog.mrc", "catalog.txt"}, e.Name())
			}
		})
	}
}

func TestCount(t *testing.T) {
	fx := newFixture(t, testConfig)

	stdout, _, err := execute(t, "count", "--input", fx.input)
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout)
}

func TestCount_MissingInput(t *testing.T) {
	_, _, err := execute(t, "count", "--input", filepath.Join(t.TempDir(), "none.mrc"))
	assert.ErrorIs(t, err, core.ErrInputNotFound)
}
