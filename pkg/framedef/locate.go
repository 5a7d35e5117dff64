package framedef

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	frameToken = "FRAME"
	rawToken   = "RAW:"
)

var (
	ErrFrameNotFound   = errors.New("frame not found")
	ErrMalformedHeader = errors.New("malformed FRAME header")
)

// SourceLine is a trimmed line of the description file and its 1-based
// line number.
type SourceLine struct {
	Number int
	Text   string
}

// RawFrame is a located frame block before its field lines are parsed.
type RawFrame struct {
	Name       string
	ID         string
	Line       int
	FieldLines []SourceLine
}

// FrameSummary describes one FRAME header, as reported by ListFrames.
type FrameSummary struct {
	Name       string
	ID         string
	Line       int
	FieldLines int
}

func isHeader(trimmed string) bool {
	return strings.HasPrefix(trimmed, frameToken)
}

// headerID returns the text strictly between the first '(' and the ')'
// following it.
func headerID(number int, trimmed string) (string, error) {
	_, rest, ok := strings.Cut(trimmed, "(")
	if !ok {
		return "", &ParseError{Line: number, Text: trimmed, Err: ErrMalformedHeader}
	}
	id, _, ok := strings.Cut(rest, ")")
	if !ok {
		return "", &ParseError{Line: number, Text: trimmed, Err: ErrMalformedHeader}
	}
	return id, nil
}

// Locate finds the block of frameName. A header matches when its text after
// "FRAME " begins with frameName. Every following line that is not a RAW:
// enum listing is collected until the next FRAME header of any name.
func Locate(lines []string, frameName string) (*RawFrame, error) {
	if strings.TrimSpace(frameName) == "" {
		return nil, errors.Wrap(ErrFrameNotFound, "empty frame name")
	}
	prefix := frameToken + " " + frameName

	var frame *RawFrame
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeader(trimmed) {
			if frame != nil {
				break
			}
			if !strings.HasPrefix(trimmed, prefix) {
				continue
			}
			id, err := headerID(i+1, trimmed)
			if err != nil {
				return nil, err
			}
			frame = &RawFrame{Name: frameName, ID: id, Line: i + 1}
			continue
		}

		if frame == nil || strings.HasPrefix(trimmed, rawToken) {
			continue
		}
		frame.FieldLines = append(frame.FieldLines, SourceLine{Number: i + 1, Text: trimmed})
	}

	if frame == nil {
		return nil, errors.Wrapf(ErrFrameNotFound, "%s", frameName)
	}
	return frame, nil
}

// ListFrames returns every FRAME header in source order.
func ListFrames(lines []string) ([]FrameSummary, error) {
	var frames []FrameSummary
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isHeader(trimmed) {
			id, err := headerID(i+1, trimmed)
			if err != nil {
				return nil, err
			}
			name, _, _ := strings.Cut(strings.TrimPrefix(trimmed, frameToken), "(")
			frames = append(frames, FrameSummary{
				Name: strings.TrimSpace(name),
				ID:   id,
				Line: i + 1,
			})
			continue
		}
		if len(frames) == 0 || trimmed == "" || strings.HasPrefix(trimmed, rawToken) {
			continue
		}
		frames[len(frames)-1].FieldLines++
	}
	return frames, nil
}
