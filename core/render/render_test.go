package render

import (
	"bytes"
	"testing"

	"github.com/gaurav-prasanna/marc2csv/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, format string, opts Options, columns []string, rows [][]string) string {
	t.Helper()
	var buf bytes.Buffer
	enc, err := New(format, &buf, opts)
	require.NoError(t, err)
	require.NoError(t, enc.WriteHeader(columns))
	require.NoError(t, enc.WriteRows(rows))
	require.NoError(t, enc.Flush())
	return buf.String()
}

func TestCSV(t *testing.T) {
	out := encode(t, FormatCSV, Options{}, []string{"650_lemm", "245"}, [][]string{
		{"history$|$art", `Title, "quoted"`},
		{"", ""},
	})

	assert.Equal(t, "650_lemm,245\nhistory$|$art,\"Title, \"\"quoted\"\"\"\n,\n", out)
}

func TestCSV_CRLF(t *testing.T) {
	out := encode(t, "CSV", Options{CRLF: true}, []string{"245"}, [][]string{{"Title"}})
	assert.Equal(t, "245\r\nTitle\r\n", out)
}

func TestTSV(t *testing.T) {
	out := encode(t, FormatTSV, Options{}, []string{"a", "b"}, [][]string{{"1 2", "3"}})
	assert.Equal(t, "a\tb\n1 2\t3\n", out)
}

func TestJSONL(t *testing.T) {
	out := encode(t, FormatJSONL, Options{CRLF: true}, []string{"650_lemm", "245"}, [][]string{
		{"history", `Title "x"`},
		{"", ""},
	})

	assert.Equal(t, "{\"650_lemm\":\"history\",\"245\":\"Title \\\"x\\\"\"}\n{\"650_lemm\":\"\",\"245\":\"\"}\n", out)
}

func TestJSONL_RowWidthMismatch(t *testing.T) {
	enc := NewJSONLEncoder(&bytes.Buffer{})
	require.NoError(t, enc.WriteHeader([]string{"a"}))
	assert.Error(t, enc.WriteRows([][]string{{"1", "2"}}))
}

func TestNew_Extensions(t *testing.T) {
	for format, ext := range map[string]string{"": ".csv", FormatCSV: ".csv", FormatTSV: ".tsv", FormatJSONL: ".jsonl"} {
		enc, err := New(format, &bytes.Buffer{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, ext, enc.Extension())
	}

	_, err := New("xlsx", &bytes.Buffer{}, Options{})
	assert.ErrorIs(t, err, core.ErrFormatMismatch)
}
