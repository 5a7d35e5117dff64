package framedef

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrMalformedFieldLine = errors.New("malformed field line")

// ParseError reports a line of the description file that could not be
// parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// between returns the text after the first occurrence of start and before
// the next occurrence of end. An empty end means end of line.
func between(s, start, end string) (string, bool) {
	_, rest, ok := strings.Cut(s, start)
	if !ok {
		return "", false
	}
	if end == "" {
		return rest, true
	}
	v, _, ok := strings.Cut(rest, end)
	return v, ok
}

// ParseField parses one trimmed field line of the shape
//
//	SIGNAL: <name>, OFFSET <int> LEN <int> - <description>
//
// name is the text after the first ": " up to the next ","; offset follows
// "OFFSET " up to " LEN"; length follows "LEN " up to the next space or the
// end of the line; the description is everything after the first " - ".
func ParseField(number int, line string) (FieldDescriptor, error) {
	fail := func(format string, args ...interface{}) (FieldDescriptor, error) {
		return FieldDescriptor{}, &ParseError{
			Line: number,
			Text: line,
			Err:  errors.Wrapf(ErrMalformedFieldLine, format, args...),
		}
	}

	name, ok := between(line, ": ", ",")
	if !ok || strings.TrimSpace(name) == "" {
		return fail("missing name")
	}

	offsetText, ok := between(line, "OFFSET ", " LEN")
	if !ok {
		return fail("missing OFFSET")
	}
	offset, err := strconv.Atoi(strings.TrimSpace(offsetText))
	if err != nil {
		return fail("OFFSET %q is not an integer", offsetText)
	}

	lengthText, ok := between(line, "LEN ", " ")
	if !ok {
		lengthText, _ = between(line, "LEN ", "")
	}
	length, err := strconv.Atoi(strings.TrimSpace(lengthText))
	if err != nil {
		return fail("LEN %q is not an integer", lengthText)
	}

	desc, ok := between(line, " - ", "")
	if !ok {
		return fail("missing description")
	}

	return FieldDescriptor{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(desc),
		Offset:      offset,
		Length:      length,
		Line:        number,
	}, nil
}
