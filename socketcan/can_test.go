package socketcan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.einride.tech/can"
)

func TestBufferToFrame(t *testing.T) {
	rawBuffer := []byte{1, 4, 0, 0, 6, 0, 0, 0, 6, 0, 53, 154, 238, 89, 0, 0}

	canFrame, ok := BufferToFrame(rawBuffer)

	assert.True(t, ok)
	assert.Equal(t, uint32(0x401), canFrame.ID, "CAN frame ID was not equal")
	assert.Equal(t, uint8(6), canFrame.Length, "CAN frame length was not equal")
	assert.Equal(t, can.Data{6, 0, 53, 154, 238, 89, 0, 0}, canFrame.Data)
	assert.False(t, canFrame.IsExtended)
	assert.False(t, canFrame.IsRemote)
}

func TestBufferToFrameFlags(t *testing.T) {
	// 0x18ff50e5 | EFF | RTR
	rawBuffer := []byte{0xe5, 0x50, 0xff, 0xd8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	canFrame, ok := BufferToFrame(rawBuffer)
	assert.True(t, ok)
	assert.True(t, canFrame.IsExtended)
	assert.True(t, canFrame.IsRemote)
	assert.Equal(t, uint32(0x18ff50e5), canFrame.ID)

	rawBuffer[3] = 0x20
	_, ok = BufferToFrame(rawBuffer)
	assert.False(t, ok, "error frames are reported")
}

func TestFrameToBuffer(t *testing.T) {
	frame := can.Frame{
		ID:         0x18ff50e5,
		Length:     2,
		Data:       can.Data{0xde, 0xad},
		IsExtended: true,
	}

	buffer := make([]byte, FrameLength)
	FrameToBuffer(frame, buffer)
	assert.Equal(t, []byte{0xe5, 0x50, 0xff, 0x98, 2, 0, 0, 0, 0xde, 0xad, 0, 0, 0, 0, 0, 0}, buffer)

	back, ok := BufferToFrame(buffer)
	assert.True(t, ok)
	assert.Equal(t, frame, back)
}
