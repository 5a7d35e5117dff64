package decode

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"

	"github.com/karlding/canunions/pkg/bitlayout"
	"github.com/karlding/canunions/pkg/framedef"
)

const source = `FRAME GS_418h(0x0418)
    SIGNAL: FSC, OFFSET 0 LEN 8 - speed step
    SIGNAL: FPC, OFFSET 8 LEN 8 - driving program
    SIGNAL: KD, OFFSET 16 LEN 1 - kickdown
    SIGNAL: M_EGS, OFFSET 19 LEN 13 - requested torque
    SIGNAL: NAB, OFFSET 32 LEN 16 - output speed
`

func newDecoder(t *testing.T) *Decoder {
	frame, err := framedef.Parse(framedef.SplitLines(source), "GS_418h")
	require.NoError(t, err)
	d, err := NewDecoder(frame)
	require.NoError(t, err)
	return d
}

func TestImportReversesBytes(t *testing.T) {
	raw := Import([]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88})
	assert.Equal(t, uint64(0x1122334455667788), raw)

	// short frames fill from the most significant end
	assert.Equal(t, uint64(0xaabb000000000000), Import([]byte{0xaa, 0xbb}))
}

func TestExportIsImportInverse(t *testing.T) {
	data := Export(0x1122334455667788)
	assert.Equal(t, can.Data{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}, data)
	data = Export(0x0123456789abcdef)
	assert.Equal(t, uint64(0x0123456789abcdef), Import(data[:]))
}

func TestDecodeFrame(t *testing.T) {
	d := newDecoder(t)
	assert.Equal(t, uint32(0x418), d.ID())

	var f can.Frame
	require.NoError(t, f.UnmarshalString("418#02039FFFFFFF0000"))

	values, err := d.Decode(f)
	require.NoError(t, err)
	require.Len(t, values, 5)

	assert.Equal(t, "FSC", values[0].Field.Name)
	assert.Equal(t, uint64(2), values[0].Raw)
	assert.Equal(t, uint64(3), values[1].Raw)
	assert.Equal(t, uint64(1), values[2].Raw)
	assert.Equal(t, "true", values[2].String())
	assert.Equal(t, uint64(0x1fff), values[3].Raw)
	assert.Equal(t, int64(0x1fff), values[3].Int)
	// a full 16 bit field reads back through a signed short
	assert.Equal(t, uint64(0xffff), values[4].Raw)
	assert.Equal(t, int64(-1), values[4].Int)

	assert.Equal(t, "GS_418 FSC=2 FPC=3 KD=true M_EGS=8191 NAB=-1", Format("GS_418", values))
}

func TestDecodeRawMatchesInsert(t *testing.T) {
	d := newDecoder(t)

	var raw uint64
	for i, acc := range d.accessors {
		raw = acc.Insert(raw, uint64(i+1))
	}
	for i, v := range d.DecodeRaw(raw) {
		assert.Equal(t, uint64(i+1)&v.Accessor.FieldMask, v.Raw)
	}
}

func TestDecodeRefusesOtherFrames(t *testing.T) {
	d := newDecoder(t)

	_, err := d.Decode(can.Frame{ID: 0x218, Length: 8})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIDMismatch))

	assert.False(t, d.Matches(can.Frame{ID: 0x418, IsRemote: true}))
	assert.True(t, d.Matches(can.Frame{ID: 0x418}))
}

func TestNewDecoderRejectsBadFields(t *testing.T) {
	frame := &framedef.FrameDescriptor{
		Name:   "MS_608h",
		ID:     "0x608",
		Fields: []framedef.FieldDescriptor{{Name: "WIDE", Offset: 0, Length: 40}},
	}
	_, err := NewDecoder(frame)
	assert.True(t, errors.Is(err, bitlayout.ErrUnsupportedWidth))

	frame = &framedef.FrameDescriptor{Name: "MS_608h", ID: "sixoheight"}
	_, err = NewDecoder(frame)
	assert.Error(t, err)
}

func TestEncodeMatchesDecode(t *testing.T) {
	d := newDecoder(t)

	f, err := d.Encode(
		Assignment{Field: "FSC", Value: 2},
		Assignment{Field: "FPC", Value: 3},
		Assignment{Field: "KD", Value: 1},
		Assignment{Field: "M_EGS", Value: 0x1fff},
		Assignment{Field: "NAB", Value: 0xffff},
	)
	require.NoError(t, err)

	var want can.Frame
	require.NoError(t, want.UnmarshalString("418#02039FFFFFFF0000"))
	assert.Equal(t, want, f)

	values, err := d.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "GS_418 FSC=2 FPC=3 KD=true M_EGS=8191 NAB=-1", Format("GS_418", values))
}

func TestEncodeMasksLikeTheSetter(t *testing.T) {
	d := newDecoder(t)

	// a negative value keeps only the field's low bits
	f, err := d.Encode(Assignment{Field: "FPC", Value: uint64(0xffffffffffffffff)})
	require.NoError(t, err)
	assert.Equal(t, can.Data{0, 0xff, 0, 0, 0, 0, 0, 0}, f.Data)

	// later setters win on the bits they share
	f, err = d.Encode(Assignment{Field: "FSC", Value: 1}, Assignment{Field: "FSC", Value: 7})
	require.NoError(t, err)
	assert.Equal(t, uint8(7), f.Data[0])
}

func TestEncodeUnknownField(t *testing.T) {
	_, err := newDecoder(t).Encode(Assignment{Field: "GEAR", Value: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
	assert.Contains(t, err.Error(), "GEAR")
}

func TestEncodeExtendedID(t *testing.T) {
	frame, err := framedef.Parse(framedef.SplitLines("FRAME J1939_F004h(0x0CF00400)\n  SIGNAL: TQ, OFFSET 16 LEN 8 - torque\n"), "J1939_F004h")
	require.NoError(t, err)
	d, err := NewDecoder(frame)
	require.NoError(t, err)

	f, err := d.Encode(Assignment{Field: "TQ", Value: 0x7d})
	require.NoError(t, err)
	assert.True(t, f.IsExtended)
	assert.Equal(t, uint32(0x0CF00400), f.ID)
	assert.Equal(t, uint8(0x7d), f.Data[2])
}
