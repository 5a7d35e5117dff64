// Package decode reads frame payloads the same way the generated unions do:
// import_frame followed by every getter.
package decode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"

	"github.com/karlding/canunions/pkg/bitlayout"
	"github.com/karlding/canunions/pkg/framedef"
)

var (
	ErrIDMismatch   = errors.New("frame identifier mismatch")
	ErrUnknownField = errors.New("unknown field")
)

// standardIDMask covers the 11 bit identifiers; anything wider is sent as
// an extended frame.
const standardIDMask = 0x7FF

// Import returns the union's raw word after import_frame copied data into
// it: wire byte i lands in bytes[7-i] of a little-endian union.
func Import(data []byte) uint64 {
	var b [8]byte
	for i := 0; i < len(data) && i < 8; i++ {
		b[7-i] = data[i]
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Export returns the wire bytes export_frame writes for raw.
func Export(raw uint64) can.Data {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], raw)

	var data can.Data
	for i := range data {
		data[i] = b[7-i]
	}
	return data
}

// Value is one decoded field.
type Value struct {
	Field    framedef.FieldDescriptor
	Accessor bitlayout.Accessor
	// Raw is the unsigned field value; Int is what the C getter returns
	Raw uint64
	Int int64
}

func (v Value) String() string {
	if v.Accessor.Type == bitlayout.Bool {
		return fmt.Sprintf("%t", v.Raw != 0)
	}
	return fmt.Sprintf("%d", v.Int)
}

// Decoder decodes payloads of one frame.
type Decoder struct {
	frame     *framedef.FrameDescriptor
	id        uint32
	accessors []bitlayout.Accessor
}

// NewDecoder computes every field accessor of frame up front, so it fails on
// the same inputs code generation fails on.
func NewDecoder(frame *framedef.FrameDescriptor) (*Decoder, error) {
	id, err := frame.NumericID()
	if err != nil {
		return nil, err
	}

	d := &Decoder{frame: frame, id: id}
	for _, field := range frame.Fields {
		acc, err := bitlayout.Compute(field.Offset, field.Length)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %s: field %s", frame.Name, field.Name)
		}
		d.accessors = append(d.accessors, acc)
	}
	return d, nil
}

// ID is the frame's bus identifier.
func (d *Decoder) ID() uint32 { return d.id }

// Frame returns the descriptor the decoder was built from.
func (d *Decoder) Frame() *framedef.FrameDescriptor { return d.frame }

// Matches reports whether f carries this frame.
func (d *Decoder) Matches(f can.Frame) bool {
	return !f.IsRemote && f.ID == d.id
}

// Decode reads every field out of f. Like import_frame, a frame with another
// identifier is refused.
func (d *Decoder) Decode(f can.Frame) ([]Value, error) {
	if !d.Matches(f) {
		return nil, errors.Wrapf(ErrIDMismatch, "got 0x%x, %s is 0x%x", f.ID, d.frame.Name, d.id)
	}
	n := int(f.Length)
	if n > can.MaxDataLength {
		n = can.MaxDataLength
	}
	return d.DecodeRaw(Import(f.Data[:n])), nil
}

// DecodeRaw reads every field out of a raw union word.
func (d *Decoder) DecodeRaw(raw uint64) []Value {
	values := make([]Value, 0, len(d.accessors))
	for i, acc := range d.accessors {
		values = append(values, Value{
			Field:    d.frame.Fields[i],
			Accessor: acc,
			Raw:      acc.Extract(raw),
			Int:      acc.Signed(raw),
		})
	}
	return values
}

// Assignment is one setter call: Value is truncated to the field width the
// same way the generated setter masks it.
type Assignment struct {
	Field string
	Value uint64
}

// Encode returns the frame export_frame produces after the setters of
// assignments ran in order on a zeroed union.
func (d *Decoder) Encode(assignments ...Assignment) (can.Frame, error) {
	var raw uint64
	for _, a := range assignments {
		i := d.fieldIndex(a.Field)
		if i < 0 {
			return can.Frame{}, errors.Wrapf(ErrUnknownField, "%s has no field %s", d.frame.Name, a.Field)
		}
		raw = d.accessors[i].Insert(raw, a.Value)
	}
	return can.Frame{
		ID:         d.id,
		Length:     can.MaxDataLength,
		Data:       Export(raw),
		IsExtended: d.id > standardIDMask,
	}, nil
}

func (d *Decoder) fieldIndex(name string) int {
	for i, field := range d.frame.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// Format renders values on one line as NAME=value pairs.
func Format(frame string, values []Value) string {
	var b strings.Builder
	b.WriteString(frame)
	for _, v := range values {
		fmt.Fprintf(&b, " %s=%s", v.Field.Name, v)
	}
	return b.String()
}
