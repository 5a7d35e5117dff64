package bitlayout

import (
	"math"
	"math/bits"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearedMask builds the write mask one bit at a time, counting bit
// positions from the most significant end.
func clearedMask(offset, length int) uint64 {
	mask := ^uint64(0)
	start := 63 - offset
	for bit := 0; bit < length; bit++ {
		mask &^= 1 << uint(start-bit)
	}
	return mask
}

func forEachSpan(fn func(offset, length int)) {
	for length := 1; length <= MaxFieldBits; length++ {
		for offset := 0; offset+length <= WordBits; offset++ {
			fn(offset, length)
		}
	}
}

func TestTypeFor(t *testing.T) {
	cases := map[int]DataType{
		1:  Bool,
		2:  Uint8,
		5:  Uint8,
		8:  Uint8,
		9:  Int16,
		12: Int16,
		16: Int16,
		17: Int32,
		20: Int32,
		32: Int32,
	}
	for length, want := range cases {
		got, err := TypeFor(length)
		require.NoError(t, err, "length %d", length)
		assert.Equal(t, want, got, "length %d", length)
	}

	_, err := TypeFor(33)
	assert.True(t, errors.Is(err, ErrUnsupportedWidth))
	_, err = TypeFor(0)
	assert.True(t, errors.Is(err, ErrInvalidBitSpan))
}

func TestCTypes(t *testing.T) {
	assert.Equal(t, "bool", Bool.CType())
	assert.Equal(t, "uint8_t", Uint8.CType())
	assert.Equal(t, "short", Int16.CType())
	assert.Equal(t, "int", Int32.CType())
	assert.Equal(t, "unknown", DataType(42).CType())
}

func TestComputeKnownFields(t *testing.T) {
	// values taken from hand-checked GS_218 headers
	a, err := Compute(2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdfffffffffffffff), a.WriteMask)
	assert.Equal(t, uint64(0x1), a.FieldMask)
	assert.Equal(t, uint(61), a.Shift)
	assert.Equal(t, Bool, a.Type)

	a, err = Compute(3, 13)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xe000ffffffffffff), a.WriteMask)
	assert.Equal(t, uint64(0x1fff), a.FieldMask)
	assert.Equal(t, uint(48), a.Shift)
	assert.Equal(t, Int16, a.Type)

	a, err = Compute(0, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0000ffffffffffff), a.WriteMask)
	assert.Equal(t, uint64(0xffff), a.FieldMask)
	assert.Equal(t, uint(48), a.Shift)

	a, err = Compute(32, 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffff00000000), a.WriteMask)
	assert.Equal(t, uint(0), a.Shift)
	assert.Equal(t, Int32, a.Type)
}

func TestComputeMasks(t *testing.T) {
	forEachSpan(func(offset, length int) {
		a, err := Compute(offset, length)
		require.NoError(t, err)

		assert.Equal(t, uint64(1)<<uint(length)-1, a.FieldMask)
		assert.Equal(t, clearedMask(offset, length), a.WriteMask, "offset %d length %d", offset, length)
		assert.Equal(t, length, bits.OnesCount64(^a.WriteMask))
		// contiguous: the cleared bits shifted down form the field mask
		assert.Equal(t, a.FieldMask, ^a.WriteMask>>a.Shift)
		assert.Equal(t, uint(64-length-offset), a.Shift)
	})
}

func TestComputeRejectsBadSpans(t *testing.T) {
	for _, span := range [][2]int{{60, 8}, {-1, 4}, {0, 0}, {64, 1}, {40, 25},
		{math.MaxInt, 1}, {1, math.MaxInt}, {math.MaxInt, math.MaxInt}, {65, -1}} {
		_, err := Compute(span[0], span[1])
		require.Error(t, err, "span %v", span)
		assert.True(t, errors.Is(err, ErrInvalidBitSpan), "span %v", span)
	}

	for _, span := range [][2]int{{0, 64}, {0, 33}, {20, 40}} {
		_, err := Compute(span[0], span[1])
		require.Error(t, err, "span %v", span)
		assert.True(t, errors.Is(err, ErrUnsupportedWidth), "span %v", span)
	}
}

func TestRoundTrip(t *testing.T) {
	forEachSpan(func(offset, length int) {
		a, err := Compute(offset, length)
		require.NoError(t, err)

		for _, v := range []uint64{0, 1, a.FieldMask, 0xa5a5a5a5 & a.FieldMask, a.FieldMask >> 1} {
			assert.Equal(t, v, a.Extract(a.Insert(0, v)), "offset %d length %d value %x", offset, length, v)
			assert.Equal(t, v, a.Extract(a.Insert(^uint64(0), v)), "offset %d length %d value %x", offset, length, v)
		}
	})
}

func TestInsertMasksOversizedValues(t *testing.T) {
	a, err := Compute(4, 4)
	require.NoError(t, err)

	raw := a.Insert(0, 0x1f)
	assert.Equal(t, uint64(0xf), a.Extract(raw))
	assert.Equal(t, uint64(0x0f00000000000000), raw)
}

func TestInsertLeavesOtherBitsAlone(t *testing.T) {
	const raw = uint64(0x0123456789abcdef)
	forEachSpan(func(offset, length int) {
		a, err := Compute(offset, length)
		require.NoError(t, err)

		changed := a.Insert(raw, ^uint64(0)) ^ raw
		assert.Zero(t, changed&a.WriteMask, "offset %d length %d", offset, length)
	})
}

func TestAdjacentBytesAreIndependent(t *testing.T) {
	first, err := Compute(0, 8)
	require.NoError(t, err)
	second, err := Compute(8, 8)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x00ffffffffffffff), first.WriteMask)
	assert.Equal(t, uint64(0xff00ffffffffffff), second.WriteMask)
	assert.Zero(t, ^first.WriteMask & ^second.WriteMask)

	raw := first.Insert(0, 0x12)
	raw = second.Insert(raw, 0x34)
	assert.Equal(t, uint64(0x1234000000000000), raw)

	raw = first.Insert(raw, 0xff)
	assert.Equal(t, uint64(0xff), first.Extract(raw))
	assert.Equal(t, uint64(0x34), second.Extract(raw))
}

func TestSigned(t *testing.T) {
	a, err := Compute(0, 16)
	require.NoError(t, err)
	raw := a.Insert(0, 0xffff)
	assert.Equal(t, int64(-1), a.Signed(raw))

	a, err = Compute(0, 12)
	require.NoError(t, err)
	raw = a.Insert(0, 0xfff)
	assert.Equal(t, int64(0xfff), a.Signed(raw))

	a, err = Compute(32, 32)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), a.Signed(0xfffffffe))

	a, err = Compute(0, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(200), a.Signed(a.Insert(0, 200)))
}
