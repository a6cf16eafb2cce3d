// Package segment splits a line-oriented catalog stream into record blocks.
// A line starting with the record marker opens a new record; everything up
// to the next marker (or end of stream) belongs to the same block.
package segment

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gaurav-prasanna/marc2csv/core"
)

// readerSize bounds the buffered reader; lines longer than this are still
// read whole, only the counting pass sees them in pieces.
const readerSize = 64 * 1024

// ContextCheckInterval is how often (in lines) Count checks for cancellation.
var ContextCheckInterval = 4096

// IsMarker reports whether line opens a new record.
func IsMarker(line string) bool {
	return strings.HasPrefix(line, core.RecordMarker)
}

// Scanner yields record blocks lazily, in a single forward pass.
// Its API follows bufio.Scanner: call Scan until it returns false,
// then check Err.
type Scanner struct {
	r       *bufio.Reader
	block   core.Block
	pending string
	done    bool
	err     error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, readerSize)}
}

// Scan advances to the next non-empty block. The final block is returned
// even when no marker follows it.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	var block core.Block
	if s.pending != "" {
		block = append(block, s.pending)
		s.pending = ""
	}

	for {
		line, err := s.r.ReadString('\n')
		if line != "" {
			if IsMarker(line) && len(block) > 0 {
				s.pending = line
				s.block = block
				return true
			}
			block = append(block, line)
		}
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = fmt.Errorf("reading records: %w", err)
				return false
			}
			if len(block) == 0 {
				return false
			}
			s.block = block
			return true
		}
	}
}

// Block returns the block produced by the last successful Scan.
// The slice is owned by the caller; the Scanner never touches it again.
func (s *Scanner) Block() core.Block {
	return s.block
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

// Count returns the number of lines that start with the record marker.
func Count(ctx context.Context, r io.Reader) (int, error) {
	br := bufio.NewReaderSize(r, readerSize)
	marker := []byte(core.RecordMarker)

	var (
		total       int
		lines       int
		atLineStart = true
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if atLineStart && bytes.HasPrefix(chunk, marker) {
			total++
		}
		atLineStart = len(chunk) > 0 && chunk[len(chunk)-1] == '\n'

		if atLineStart {
			lines++
			if lines%ContextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return total, fmt.Errorf("counting records: %w", err)
				}
			}
		}

		switch {
		case err == nil, err == bufio.ErrBufferFull:
		case err == io.EOF:
			return total, nil
		default:
			return total, fmt.Errorf("counting records: %w", err)
		}
	}
}
