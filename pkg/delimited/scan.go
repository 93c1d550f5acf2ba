package delimited

import (
	"fmt"
	"strings"
)

// field is one scanned cell. quoted distinguishes "" (empty string) from a
// bare empty cell (null).
type field struct {
	text   string
	quoted bool
}

// record is one scanned line group: the fields plus the 1-based line the
// record started on. Quoted fields may span lines.
type record struct {
	line   int
	fields []field
}

type scanError struct {
	line   int
	column int
	msg    string
}

// scanRecords splits data into records. It differs from encoding/csv in one
// essential way: it keeps track of whether each field was quoted, so the
// caller can tell a bare empty cell from a quoted empty one. Blank lines
// are skipped. CRLF and LF both terminate records; inside quotes, line
// breaks are literal content.
func scanRecords(data []byte, delim byte) ([]record, *scanError) {
	const (
		atFieldStart = iota
		inField
		inQuote
		afterQuote
	)

	var (
		records []record
		cur     []field
		buf     strings.Builder
		quoted  bool
		state   = atFieldStart
		line    = 1
		start   = 1
	)

	flush := func() {
		cur = append(cur, field{text: buf.String(), quoted: quoted})
		buf.Reset()
		quoted = false
	}
	endRecord := func() {
		flush()
		blank := len(cur) == 1 && !cur[0].quoted && cur[0].text == ""
		if !blank {
			records = append(records, record{line: start, fields: cur})
		}
		cur = nil
	}

	i := 0
	for i < len(data) {
		c := data[i]
		crlf := c == '\r' && i+1 < len(data) && data[i+1] == '\n'

		switch state {
		case atFieldStart:
			switch {
			case c == '"':
				quoted = true
				state = inQuote
				i++
			case c == delim:
				flush()
				i++
			case c == '\n' || crlf:
				endRecord()
				line++
				start = line
				if crlf {
					i++
				}
				i++
			default:
				buf.WriteByte(c)
				state = inField
				i++
			}

		case inField:
			switch {
			case c == delim:
				flush()
				state = atFieldStart
				i++
			case c == '\n' || crlf:
				endRecord()
				line++
				start = line
				state = atFieldStart
				if crlf {
					i++
				}
				i++
			case c == '"':
				return nil, &scanError{line: line, column: len(cur) + 1, msg: "bare quote in unquoted field"}
			default:
				buf.WriteByte(c)
				i++
			}

		case inQuote:
			switch {
			case c == '"' && i+1 < len(data) && data[i+1] == '"':
				buf.WriteByte('"')
				i += 2
			case c == '"':
				state = afterQuote
				i++
			default:
				if c == '\n' {
					line++
				}
				buf.WriteByte(c)
				i++
			}

		case afterQuote:
			switch {
			case c == delim:
				flush()
				state = atFieldStart
				i++
			case c == '\n' || crlf:
				endRecord()
				line++
				start = line
				state = atFieldStart
				if crlf {
					i++
				}
				i++
			default:
				return nil, &scanError{line: line, column: len(cur) + 1, msg: fmt.Sprintf("unexpected %q after closing quote", c)}
			}
		}
	}

	switch state {
	case inQuote:
		return nil, &scanError{line: start, column: len(cur) + 1, msg: "unterminated quoted field"}
	case inField, afterQuote:
		endRecord()
	case atFieldStart:
		if len(cur) > 0 {
			endRecord()
		}
	}
	return records, nil
}
