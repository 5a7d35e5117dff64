package tritium

import (
	"encoding/binary"
	"net"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

// magicNumber is the magic number denoting the Tritium UDP packet protocol
// version
const magicNumber = uint64(0x5472697469756)

const (
	// DefaultBusNumber is used when no bus number is configured. It must
	// match the bridge configuration or the bridge drops the connection.
	DefaultBusNumber = 0xd

	// DatagramLength is the size of a UDP datagram from the bridge
	DatagramLength = 30
	// TCPLength is the size of a bridged frame on an established TCP stream
	TCPLength = 14
)

var (
	ErrBadMagic    = errors.New("tritium packet did not contain magic number")
	ErrShortPacket = errors.New("tritium packet too short")
)

// Packet represents a UDP packet received from the Tritium
// CAN-Ethernet bridge
type Packet struct {
	// Magic number
	VersionIdentifier uint64
	BusNumber         uint8

	ClientIdentifier uint64

	// CAN arbitration ID
	CanID uint32

	// Flags is a 8-bit field
	// (FlagHeartbeat << 7) | (FlagSettings << 6) | (FlagRtr << 1) | (FlagExtendedID << 0)
	FlagHeartbeat  bool
	FlagSettings   bool
	FlagRtr        bool
	FlagExtendedID bool

	Length uint8
	// Data is the frame payload read big-endian, padded with zero bytes
	Data uint64
}

// Frame returns the bridged CAN frame.
func (p *Packet) Frame() can.Frame {
	f := can.Frame{
		ID:         p.CanID,
		Length:     p.Length,
		IsRemote:   p.FlagRtr,
		IsExtended: p.FlagExtendedID,
	}
	binary.BigEndian.PutUint64(f.Data[:], p.Data)
	return f
}

// +-----------------------------+
// | CAN ID (32 bits)            | 0 - 3
// +-----------------------------+
// | Flags (8 bits)              | 4
// +-----------------------------+
// | Length (8 bits)             | 5
// +-----------------------------+
// | Data (64 bits)              | 6 - 13
// +-----------------------------+
func parseFrameSection(array []byte, p *Packet) {
	p.CanID = binary.BigEndian.Uint32(array[0:4])

	flags := array[4]
	p.FlagHeartbeat = (flags>>7)&uint8(1) == 1
	p.FlagSettings = (flags>>6)&uint8(1) == 1
	p.FlagRtr = (flags>>1)&uint8(1) == 1
	p.FlagExtendedID = (flags>>0)&uint8(1) == 1

	p.Length = array[5]
	p.Data = binary.BigEndian.Uint64(array[6:14])
}

// ParseTCP decodes a frame received on an established TCP stream.
func ParseTCP(array []byte) (Packet, error) {
	var p Packet
	if len(array) < TCPLength {
		return p, errors.Wrapf(ErrShortPacket, "%d bytes", len(array))
	}
	parseFrameSection(array, &p)
	return p, nil
}

// ParseDatagram decodes a UDP datagram from the bridge.
//
// +-----------------------------+
// | Padding (8 bits)            | 0
// +-----------------------------+
// | Bus Identifier (56 bits)    | 1 - 7
// +-----------------------------+
// | Padding (8 bits)            | 8
// +-----------------------------+
// | Client Identifier (56 bits) | 9 - 15
// +-----------------------------+
// | CAN frame section           | 16 - 29
// +-----------------------------+
//
// The Bus Identifier holds the 52 bit magic number followed by the 4 bit
// bus number. The client identifier is the bridge's MAC address.
func ParseDatagram(array []byte) (Packet, error) {
	var p Packet
	if len(array) < DatagramLength {
		return p, errors.Wrapf(ErrShortPacket, "%d bytes", len(array))
	}

	busIdentifier := binary.BigEndian.Uint64(array[0:8])
	p.VersionIdentifier = busIdentifier >> 4
	p.BusNumber = uint8(busIdentifier & 0x0F)
	if p.VersionIdentifier != magicNumber {
		return p, errors.Wrapf(ErrBadMagic, "0x%x", p.VersionIdentifier)
	}

	p.ClientIdentifier = binary.BigEndian.Uint64(array[8:16])
	parseFrameSection(array[16:], &p)
	return p, nil
}

// busIdentifier is the magic number followed by the 4 bit bus number.
func busIdentifier(bus uint8) uint64 {
	return (magicNumber << 4) | uint64(bus&0x0F)
}

func marshalFrameSection(p *Packet, buff []byte) {
	binary.BigEndian.PutUint32(buff[0:4], p.CanID)

	flags := uint8(0)
	if p.FlagHeartbeat {
		flags |= (1 << 7)
	}
	if p.FlagSettings {
		flags |= (1 << 6)
	}
	if p.FlagRtr {
		flags |= (1 << 1)
	}
	if p.FlagExtendedID {
		flags |= (1 << 0)
	}
	buff[4] = flags
	buff[5] = p.Length

	binary.BigEndian.PutUint64(buff[6:14], p.Data)
}

// MarshalDatagram writes p in the UDP datagram layout. buff must hold
// DatagramLength bytes.
func MarshalDatagram(p *Packet, buff []byte) {
	binary.BigEndian.PutUint64(buff[0:8], busIdentifier(p.BusNumber))
	binary.BigEndian.PutUint64(buff[8:16], p.ClientIdentifier)
	marshalFrameSection(p, buff[16:])
}

// MarshalTCP writes the frame section of p, which is all an established TCP
// stream carries. buff must hold TCPLength bytes.
func MarshalTCP(p *Packet, buff []byte) {
	marshalFrameSection(p, buff)
}

// PacketFromFrame wraps f for transmission by the given client on bus.
func PacketFromFrame(f can.Frame, bus uint8, client uint64) Packet {
	return Packet{
		VersionIdentifier: magicNumber,
		BusNumber:         bus,
		ClientIdentifier:  client,
		CanID:             f.ID,
		FlagRtr:           f.IsRemote,
		FlagExtendedID:    f.IsExtended,
		Length:            f.Length,
		Data:              binary.BigEndian.Uint64(f.Data[:]),
	}
}

// ClientIdentifier packs a MAC address into the 56 bit client identifier.
func ClientIdentifier(mac net.HardwareAddr) uint64 {
	var b [8]byte
	n := len(mac)
	if n > 7 {
		n = 7
	}
	copy(b[8-n:], mac[:n])
	return binary.BigEndian.Uint64(b[:])
}
