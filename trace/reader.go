// Package trace reads memory access traces from text files.
//
// A trace is one access per line, four whitespace-separated integer
// fields: thread ID, PC, address, and access type. Numbers can be decimal
// or 0x-prefixed hexadecimal. Blank lines and lines starting with # are
// skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/llcsim/mem/repl"
)

// A Reader parses accesses out of a trace.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
}

// NewReader creates a Reader that parses from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next returns the next access in the trace. It returns io.EOF after the
// last access.
func (r *Reader) Next() (repl.AccessContext, error) {
	for r.scanner.Scan() {
		r.lineNum++

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return repl.AccessContext{}, err
	}

	return repl.AccessContext{}, io.EOF
}

func (r *Reader) parseLine(line string) (repl.AccessContext, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return repl.AccessContext{}, fmt.Errorf(
			"line %d: expected 4 fields, got %d", r.lineNum, len(fields))
	}

	values := make([]uint64, 4)
	for i, field := range fields {
		value, err := strconv.ParseUint(field, 0, 64)
		if err != nil {
			return repl.AccessContext{}, fmt.Errorf(
				"line %d: cannot parse %q", r.lineNum, field)
		}

		values[i] = value
	}

	return repl.AccessContext{
		ThreadID:   int(values[0]),
		PC:         values[1],
		Address:    values[2],
		AccessType: int(values[3]),
	}, nil
}
