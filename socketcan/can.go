package socketcan

import (
	"encoding/binary"

	"go.einride.tech/can"
)

// Constants taken from Linux kernel C headers

// ExtendedFrameFormatFlag EFF/SFF is set in the MSB
const ExtendedFrameFormatFlag uint32 = uint32(0x80000000)

// RemoteTransmissionRequestFlag remote transmission request
const RemoteTransmissionRequestFlag uint32 = uint32(0x40000000)

// ErrorFlag error message frame
const ErrorFlag uint32 = uint32(0x20000000)

// StandardFrameFormatMask is a mask for standard frame format (SFF)
const StandardFrameFormatMask uint32 = uint32(0x000007FF)

// ExtendedFrameFormatMask is a mask for extended frame format (EFF)
const ExtendedFrameFormatMask uint32 = uint32(0x1FFFFFFF)

// FrameLength is the size of a Linux can_frame
const FrameLength = 16

// BufferToFrame converts a raw buffer (received over SocketCAN) to a
// CAN frame. The second result is false for error frames.
func BufferToFrame(buffer []byte) (can.Frame, bool) {
	// Taken from the Linux kernel source:
	//   include/uapi/linux/can.h
	//
	// struct can_frame {
	//   canid_t can_id;  [> 32 bit CAN_ID + EFF/RTR/ERR flags <]
	//   __u8    can_dlc; [> frame payload length in byte (0 .. CAN_MAX_DLEN) <]
	//   __u8    __pad;   [> padding <]
	//   __u8    __res0;  [> reserved / padding <]
	//   __u8    __res1;  [> reserved / padding <]
	//   __u8    data[CAN_MAX_DLEN] __attribute__((aligned(8)));
	// };
	canID := binary.LittleEndian.Uint32(buffer[0:4])

	var frame can.Frame
	frame.IsRemote = canID&RemoteTransmissionRequestFlag != 0
	frame.IsExtended = canID&ExtendedFrameFormatFlag != 0
	if frame.IsExtended {
		frame.ID = canID & ExtendedFrameFormatMask
	} else {
		frame.ID = canID & StandardFrameFormatMask
	}

	frame.Length = buffer[4]
	if frame.Length > can.MaxDataLength {
		frame.Length = can.MaxDataLength
	}
	copy(frame.Data[:], buffer[8:16])

	return frame, canID&ErrorFlag == 0
}

// FrameToBuffer converts a frame to a can_frame byte buffer
func FrameToBuffer(frame can.Frame, buffer []byte) {
	canID := frame.ID
	if frame.IsExtended {
		canID |= ExtendedFrameFormatFlag
	}
	if frame.IsRemote {
		canID |= RemoteTransmissionRequestFlag
	}

	binary.LittleEndian.PutUint32(buffer[0:4], canID)
	buffer[4] = frame.Length
	buffer[5], buffer[6], buffer[7] = 0, 0, 0

	copy(buffer[8:], frame.Data[:])
}
