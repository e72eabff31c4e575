package bridge

import (
	"bufio"
	"errors"
	"io"
)

// maxLineBytes bounds a single request line. Lines are JSON requests from a
// local controller, so anything beyond this is a protocol violation.
const maxLineBytes = 10 * 1024 * 1024

// ErrLineTooLong reports a request line over maxLineBytes. The oversized
// line is consumed before it is reported, so the next call reads the
// following line: one overlong line costs one failure outcome, not the
// session.
var ErrLineTooLong = errors.New("request line exceeds maximum length")

// LineReader yields one raw request string per input line, with the line
// terminator stripped. A partial final line without a terminator is still
// yielded once the stream ends.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader creates a LineReader over the given stream.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next line, or io.EOF once the stream is exhausted. An
// oversized line returns ErrLineTooLong with its remainder discarded. Any
// other error means the input stream itself is lost, which ends the session.
func (l *LineReader) Next() (string, error) {
	var buf []byte
	overlong := false

	for {
		chunk, err := l.r.ReadSlice('\n')
		if !overlong && len(chunk) > 0 {
			buf = append(buf, chunk...)
			if len(buf) > maxLineBytes+1 {
				// Keep draining to the terminator, stop accumulating.
				overlong = true
				buf = nil
			}
		}

		switch err {
		case nil:
			line := trimEOL(buf)
			if overlong || len(line) > maxLineBytes {
				return "", ErrLineTooLong
			}
			return string(line), nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if overlong {
				return "", ErrLineTooLong
			}
			if len(buf) == 0 {
				return "", io.EOF
			}
			line := trimEOL(buf)
			if len(line) > maxLineBytes {
				return "", ErrLineTooLong
			}
			return string(line), nil
		default:
			return "", err
		}
	}
}

// trimEOL strips a trailing LF or CRLF.
func trimEOL(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
