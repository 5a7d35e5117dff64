// Package framedef reads the textual CAN frame description format: FRAME
// headers carrying a bus identifier, followed by one line per field.
//
//	FRAME GS_218h(0x0218)
//	    SIGNAL: GIC, OFFSET 20 LEN 4 - actual gear
//	        RAW: 0 - N
//	FRAME GS_338h(0x0338)
//	    ...
package framedef

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// FieldDescriptor is a named bit-span inside a frame's 8 byte payload.
// Offset counts from the most significant bit of byte 0.
type FieldDescriptor struct {
	Name        string
	Description string
	Offset      int
	Length      int

	// Line is the 1-based source line the field was read from
	Line int
}

// FrameDescriptor is one frame block of a description file. Fields keep
// their order of appearance; overlapping spans are not detected.
type FrameDescriptor struct {
	Name string
	// ID is the raw identifier literal between the header's parentheses,
	// e.g. "0x0218"
	ID     string
	Fields []FieldDescriptor

	Line int
}

// StrippedName returns the frame name with a single trailing lowercase 'h'
// removed. "GS_218h" becomes "GS_218".
func (f *FrameDescriptor) StrippedName() string {
	return strings.TrimSuffix(f.Name, "h")
}

// ECU returns the first underscore-delimited segment of the stripped name.
func (f *FrameDescriptor) ECU() string {
	ecu, _, _ := strings.Cut(f.StrippedName(), "_")
	return ecu
}

// NumericID parses ID as a Go integer literal (0x prefix for hex, plain
// decimal otherwise).
func (f *FrameDescriptor) NumericID() (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(f.ID), 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "frame %s: identifier %q", f.Name, f.ID)
	}
	return uint32(id), nil
}

// SplitLines splits source text into lines, accepting both \n and \r\n.
func SplitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	lines := strings.Split(source, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// ReadLines reads every line of r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading frame description")
	}
	return lines, nil
}

// LoadFile reads the description file at path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	return ReadLines(f)
}

// Parse locates frameName in lines and parses all of its field lines.
// Blank lines are skipped.
func Parse(lines []string, frameName string) (*FrameDescriptor, error) {
	raw, err := Locate(lines, frameName)
	if err != nil {
		return nil, err
	}

	frame := &FrameDescriptor{
		Name: raw.Name,
		ID:   raw.ID,
		Line: raw.Line,
	}
	for _, l := range raw.FieldLines {
		if l.Text == "" {
			continue
		}
		field, err := ParseField(l.Number, l.Text)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %s", raw.Name)
		}
		frame.Fields = append(frame.Fields, field)
	}
	return frame, nil
}
