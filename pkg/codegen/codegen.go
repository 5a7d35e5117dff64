// Package codegen renders a parsed frame as a C union with typed bit-field
// accessors.
package codegen

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/karlding/canunions/pkg/bitlayout"
	"github.com/karlding/canunions/pkg/framedef"
)

// Mode selects the shape of the generated source.
type Mode int

const (
	// ModeHeader produces a standalone header with an include guard, meant
	// to be written to <ECU>/<NAME>.h.
	ModeHeader Mode = iota
	// ModeInline produces a block for direct inclusion in firmware sources,
	// converting to and from the firmware CAN_FRAME type.
	ModeInline
)

var modeNames = map[Mode]string{
	ModeHeader: "header",
	ModeInline: "inline",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode accepts "header" or "inline".
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, errors.Newf("unknown mode %q (want header or inline)", s)
}

// DefaultIncludes returns the include directives emitted for mode.
func DefaultIncludes(mode Mode) []string {
	if mode == ModeInline {
		return []string{"stdint.h", "can_common.h"}
	}
	return []string{"stdint.h", "can_c_enums.h"}
}

// GeneratedSource is the complete output for one frame.
type GeneratedSource struct {
	Frame *framedef.FrameDescriptor
	Mode  Mode
	// Name is the frame name without its trailing 'h'
	Name string
	// Path is where a header belongs, relative to the output root
	Path string
	Text []byte
}

// Generator holds the options shared by every frame it renders.
type Generator struct {
	// Includes overrides DefaultIncludes when non-empty
	Includes []string

	// Logger, if set, receives one line per generated accessor
	Logger *log.Logger
}

// Generate parses source, finds frameName in it and renders the frame.
func Generate(source, frameName string, mode Mode) (*GeneratedSource, error) {
	var g Generator
	return g.Generate(source, frameName, mode)
}

// Generate parses source, finds frameName in it and renders the frame.
func (g *Generator) Generate(source, frameName string, mode Mode) (*GeneratedSource, error) {
	return g.GenerateLines(framedef.SplitLines(source), frameName, mode)
}

// GenerateLines is Generate over already split lines.
func (g *Generator) GenerateLines(lines []string, frameName string, mode Mode) (*GeneratedSource, error) {
	frame, err := framedef.Parse(lines, frameName)
	if err != nil {
		return nil, err
	}
	return g.Emit(frame, mode)
}

// Emit renders an already parsed frame. Any field whose span or width
// cannot be represented fails the whole frame.
func (g *Generator) Emit(frame *framedef.FrameDescriptor, mode Mode) (*GeneratedSource, error) {
	name := frame.StrippedName()
	data := unionData{
		Name:     name,
		ID:       frame.ID,
		Inline:   mode == ModeInline,
		Includes: g.Includes,
	}
	if len(data.Includes) == 0 {
		data.Includes = DefaultIncludes(mode)
	}
	if mode == ModeHeader {
		data.Guard = strings.ToUpper(name) + "_H_"
	}

	for _, field := range frame.Fields {
		acc, err := bitlayout.Compute(field.Offset, field.Length)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %s: field %s (line %d)", frame.Name, field.Name, field.Line)
		}
		if g.Logger != nil {
			g.Logger.Printf("%s.%s: %s offset %d len %d shift %d mask 0x%016x",
				name, field.Name, acc.Type, field.Offset, field.Length, acc.Shift, acc.WriteMask)
		}
		data.Fields = append(data.Fields, fieldData{
			Name:        field.Name,
			Description: field.Description,
			Type:        acc.Type.CType(),
			WriteMask:   acc.WriteMask,
			FieldMask:   acc.FieldMask,
			Shift:       acc.Shift,
		})
	}

	var b strings.Builder
	if err := renderTemplate(&b, "union", data); err != nil {
		return nil, err
	}

	return &GeneratedSource{
		Frame: frame,
		Mode:  mode,
		Name:  name,
		Path:  filepath.Join(frame.ECU(), name+".h"),
		Text:  []byte(b.String()),
	}, nil
}

// UmbrellaPath is the file name of the header including every generated
// frame header.
const UmbrellaPath = "can_frames.h"

// Umbrella renders a header that includes every header-mode source.
func Umbrella(sources []*GeneratedSource) (*GeneratedSource, error) {
	var data umbrellaData
	for _, src := range sources {
		if src.Mode != ModeHeader {
			continue
		}
		data.Headers = append(data.Headers, filepath.ToSlash(src.Path))
	}

	var b strings.Builder
	if err := renderTemplate(&b, "umbrella", data); err != nil {
		return nil, err
	}
	return &GeneratedSource{
		Mode: ModeHeader,
		Name: strings.TrimSuffix(UmbrellaPath, ".h"),
		Path: UmbrellaPath,
		Text: []byte(b.String()),
	}, nil
}
