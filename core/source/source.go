// Package source opens catalog input files for reading.
// It validates the path once at startup and can reopen the file for each
// pass (the counting pass and the conversion pass), decoding the configured
// character set to UTF-8 on the fly.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultExtension is the extension expected on catalog input files.
const DefaultExtension = ".mrc"

// File is a validated input file that can be opened any number of times.
type File struct {
	Path     string
	encoding encoding.Encoding
}

// New checks that path exists and carries the expected extension, and
// resolves the charset name (empty means UTF-8).
func New(path, ext, charset string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("input file %s: %w", path, core.ErrInputNotFound)
		}
		return nil, fmt.Errorf("input file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input file %s is a directory: %w", path, core.ErrFormatMismatch)
	}
	if ext != "" && !strings.EqualFold(filepath.Ext(path), ext) {
		return nil, fmt.Errorf("input file %s: expected %s extension: %w", path, ext, core.ErrFormatMismatch)
	}

	enc, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}
	return &File{Path: path, encoding: enc}, nil
}

// Open returns a reader over the decoded file contents. A leading byte order
// mark is consumed; the caller must close the reader.
func (f *File) Open() (io.ReadCloser, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", f.Path, err)
	}
	decoder := xunicode.BOMOverride(f.encoding.NewDecoder())
	return &decodedFile{Reader: transform.NewReader(fh, decoder), file: fh}, nil
}

type decodedFile struct {
	io.Reader
	file *os.File
}

func (d *decodedFile) Close() error {
	return d.file.Close()
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return xunicode.UTF8, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", name, core.ErrFormatMismatch)
	}
	return enc, nil
}
