// Package bitlayout computes how a field is read from and written to the
// 64-bit raw word of a CAN frame union.
//
// Bit numbering: offset 0 is the most significant bit of wire byte 0. The
// raw word holds the 8 wire bytes read big-endian, so a field at offset o
// with length l occupies raw bits [64-l-o, 64-o). Getter and setter both
// shift by 64-l-o.
package bitlayout

import (
	"github.com/cockroachdb/errors"
)

const (
	// WordBits is the payload size of every frame.
	WordBits = 64

	// MaxFieldBits is the widest field an accessor can be generated for.
	MaxFieldBits = 32
)

var (
	ErrInvalidBitSpan   = errors.New("invalid bit span")
	ErrUnsupportedWidth = errors.New("unsupported field width")
)

// DataType is the C container used by a field's accessors.
type DataType int

const (
	Bool DataType = iota
	Uint8
	// Int16 holds 9 to 16 bit fields. It is the signed `short` the
	// accessors have always used, so a 16 bit field with its top bit set
	// reads back negative.
	Int16
	Int32
)

var cTypes = map[DataType]string{
	Bool:  "bool",
	Uint8: "uint8_t",
	Int16: "short",
	Int32: "int",
}

// CType returns the C spelling of the type.
func (t DataType) CType() string {
	if s, ok := cTypes[t]; ok {
		return s
	}
	return "unknown"
}

func (t DataType) String() string { return t.CType() }

// TypeFor selects the container for a field of the given length.
func TypeFor(length int) (DataType, error) {
	switch {
	case length < 1:
		return 0, errors.Wrapf(ErrInvalidBitSpan, "length %d", length)
	case length == 1:
		return Bool, nil
	case length <= 8:
		return Uint8, nil
	case length <= 16:
		return Int16, nil
	case length <= MaxFieldBits:
		return Int32, nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedWidth, "length %d exceeds %d bits", length, MaxFieldBits)
	}
}

// Accessor is the derived read/write recipe of one field.
type Accessor struct {
	Offset int
	Length int
	Type   DataType

	// WriteMask is all ones except the field's span.
	WriteMask uint64
	// FieldMask has the low Length bits set.
	FieldMask uint64
	Shift     uint
}

// Compute derives the accessor for a field. The span is checked before the
// width so that no negative shift is ever produced.
func Compute(offset, length int) (Accessor, error) {
	if offset < 0 || length < 1 || offset > WordBits || length > WordBits-offset {
		return Accessor{}, errors.Wrapf(ErrInvalidBitSpan, "offset %d length %d", offset, length)
	}

	t, err := TypeFor(length)
	if err != nil {
		return Accessor{}, err
	}

	shift := uint(WordBits - length - offset)
	fieldMask := uint64(1)<<uint(length) - 1

	return Accessor{
		Offset:    offset,
		Length:    length,
		Type:      t,
		WriteMask: ^(fieldMask << shift),
		FieldMask: fieldMask,
		Shift:     shift,
	}, nil
}

// Insert returns raw with value written into the field, as the generated
// setter does.
func (a Accessor) Insert(raw, value uint64) uint64 {
	return (raw & a.WriteMask) | ((value & a.FieldMask) << a.Shift)
}

// Extract returns the field's unsigned value from raw, as the generated
// getter does before the cast to Type.
func (a Accessor) Extract(raw uint64) uint64 {
	return (raw >> a.Shift) & a.FieldMask
}

// Signed returns Extract(raw) reinterpreted through the C container: a full
// 16 or 32 bit field with its top bit set comes back negative.
func (a Accessor) Signed(raw uint64) int64 {
	v := a.Extract(raw)
	switch a.Type {
	case Int16:
		return int64(int16(uint16(v)))
	case Int32:
		return int64(int32(uint32(v)))
	default:
		return int64(v)
	}
}
