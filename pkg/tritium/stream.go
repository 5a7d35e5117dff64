package tritium

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

// setupLength is the size of the request that opens a TCP stream.
//
// +-----------------------------+
// | Fwd Identifier (32 bits)    | 0 - 3
// +-----------------------------+
// | Fwd range (32 bits)         | 4 - 7
// +-----------------------------+
// | Padding (8 bits)            | 8
// +-----------------------------+
// | Bus Identifier (56 bits)    | 9 - 15
// +-----------------------------+
// | Padding (8 bits)            | 16
// +-----------------------------+
// | Client Identifier (56 bits) | 17 - 23
// +-----------------------------+
const setupLength = 24

// The bridge forwards any frame with
//
//	fwdIdentifier <= CAN arbitration id < fwdIdentifier + fwdRange
//
// so the stream asks for every valid id, extended ones included.
const (
	fwdIdentifier = uint32(0)
	fwdRange      = uint32(536870911)
)

// Stream is a TCP connection to one bridge. The first frame the bridge
// sends is a full datagram; every later one is a bare frame section.
type Stream struct {
	conn    net.Conn
	bus     uint8
	client  uint64
	greeted bool
}

// DialStream connects to the bridge at addr. A missing port defaults to
// Port. bus must match the bridge configuration.
func DialStream(addr string, ifname string, bus uint8) (*Stream, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s", ifname)
	}

	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(Port))
	}
	conn, err := net.Dial("tcp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing bridge %s", addr)
	}

	s, err := NewStream(conn, bus, ClientIdentifier(iface.HardwareAddr))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// NewStream sends the forwarding request over an established connection.
func NewStream(conn net.Conn, bus uint8, client uint64) (*Stream, error) {
	setup := make([]byte, setupLength)
	binary.BigEndian.PutUint32(setup[0:4], fwdIdentifier)
	binary.BigEndian.PutUint32(setup[4:8], fwdRange)
	binary.BigEndian.PutUint64(setup[8:16], busIdentifier(bus))
	binary.BigEndian.PutUint64(setup[16:24], client)

	if _, err := conn.Write(setup); err != nil {
		return nil, errors.Wrap(err, "sending forwarding request")
	}
	return &Stream{conn: conn, bus: bus, client: client}, nil
}

// ReadFrame blocks until the next bridged CAN frame. Heartbeat and settings
// packets are skipped.
func (s *Stream) ReadFrame() (can.Frame, error) {
	for {
		pkt, err := s.readPacket()
		if err != nil {
			return can.Frame{}, err
		}
		if pkt.FlagHeartbeat || pkt.FlagSettings {
			continue
		}
		return pkt.Frame(), nil
	}
}

func (s *Stream) readPacket() (Packet, error) {
	if !s.greeted {
		buff := make([]byte, DatagramLength)
		if _, err := io.ReadFull(s.conn, buff); err != nil {
			return Packet{}, errors.Wrap(err, "reading first tritium packet")
		}
		s.greeted = true
		return ParseDatagram(buff)
	}

	buff := make([]byte, TCPLength)
	if _, err := io.ReadFull(s.conn, buff); err != nil {
		return Packet{}, errors.Wrap(err, "reading tritium frame")
	}
	return ParseTCP(buff)
}

// WriteFrame sends f to the bridge, which puts it on the bus.
func (s *Stream) WriteFrame(f can.Frame) error {
	pkt := PacketFromFrame(f, s.bus, s.client)
	buff := make([]byte, TCPLength)
	MarshalTCP(&pkt, buff)

	if _, err := s.conn.Write(buff); err != nil {
		return errors.Wrap(err, "writing tritium frame")
	}
	return nil
}

// Close closes the connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}
