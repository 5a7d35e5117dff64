package tritium

import (
	"fmt"
	"log"
	"net"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
	"golang.org/x/net/ipv4"
)

// The Tritium CAN-Ethernet bridge always broadcasts on port 4876 to the
// group 239.255.60.60
var Group = net.IPv4(239, 255, 60, 60)

const Port = 4876

// Listener sends and receives bridged frames on the multicast group.
type Listener struct {
	p      *ipv4.PacketConn
	iface  *net.Interface
	bus    uint8
	client uint64
	buf    []byte
}

// Listen joins the bridge group on the named network interface. Frames
// written through the Listener are sent as bus on behalf of the interface's
// MAC address.
func Listen(ifname string, bus uint8) (*Listener, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s", ifname)
	}

	c, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", Port))
	if err != nil {
		return nil, errors.Wrapf(err, "listening on port %d", Port)
	}

	// This can be verified by checking the groups you belong to:
	// 	netstat -gn | grep '239.255.60.60'
	p := ipv4.NewPacketConn(c)
	if err := p.JoinGroup(iface, &net.UDPAddr{IP: Group}); err != nil {
		c.Close()
		return nil, errors.Wrapf(err, "joining %s on %s", Group, ifname)
	}

	return &Listener{
		p:      p,
		iface:  iface,
		bus:    bus,
		client: ClientIdentifier(iface.HardwareAddr),
		buf:    make([]byte, 1500),
	}, nil
}

// ReadFrame blocks until the next bridged CAN frame. Heartbeat and settings
// datagrams are skipped, as are datagrams without the magic number.
func (l *Listener) ReadFrame() (can.Frame, error) {
	for {
		n, _, _, err := l.p.ReadFrom(l.buf)
		if err != nil {
			return can.Frame{}, errors.Wrap(err, "reading tritium datagram")
		}

		pkt, err := ParseDatagram(l.buf[:n])
		if err != nil {
			log.Println(err)
			continue
		}
		if pkt.FlagHeartbeat || pkt.FlagSettings {
			continue
		}
		return pkt.Frame(), nil
	}
}

// WriteFrame multicasts f to the group, where the bridge puts it on the bus.
func (l *Listener) WriteFrame(f can.Frame) error {
	pkt := PacketFromFrame(f, l.bus, l.client)
	buff := make([]byte, DatagramLength)
	MarshalDatagram(&pkt, buff)

	cm := &ipv4.ControlMessage{IfIndex: l.iface.Index}
	if _, err := l.p.WriteTo(buff, cm, &net.UDPAddr{IP: Group, Port: Port}); err != nil {
		return errors.Wrap(err, "writing tritium datagram")
	}
	return nil
}

// Close leaves the group and closes the socket.
func (l *Listener) Close() error {
	leaveErr := l.p.LeaveGroup(l.iface, &net.UDPAddr{IP: Group})
	if err := l.p.Close(); err != nil {
		return errors.Wrap(err, "closing tritium socket")
	}
	if leaveErr != nil {
		return errors.Wrapf(leaveErr, "leaving %s", Group)
	}
	return nil
}
