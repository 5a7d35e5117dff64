//go:build linux

package socketcan

import (
	"net"
	"sync"

	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
	"golang.org/x/sys/unix"
)

// readTimeout bounds each blocking read so Close is noticed promptly.
var readTimeout = unix.Timeval{Sec: 1}

// Conn is a raw CAN_RAW socket bound to one interface.
//
// Close may be called while a ReadFrame is blocked. The descriptor is then
// released by the reader once its current read times out, so the number is
// never reused underneath it.
type Conn struct {
	mu      sync.Mutex
	fd      int
	closed  bool
	reading bool
}

// Dial opens a raw socket on the named SocketCAN interface, e.g. vcan0.
func Dial(ifname string) (*Conn, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, "interface %s", ifname)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, errors.Wrap(err, "opening CAN_RAW socket")
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "binding to %s", ifname)
	}
	return newConn(fd)
}

func newConn(fd int) (*Conn, error) {
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &readTimeout); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "setting read timeout")
	}
	return &Conn{fd: fd}, nil
}

// ReadFrame blocks until the next data or remote frame. Error frames are
// skipped. After Close it returns net.ErrClosed.
func (c *Conn) ReadFrame() (can.Frame, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return can.Frame{}, net.ErrClosed
	}
	c.reading = true
	fd := c.fd
	c.mu.Unlock()
	defer c.endRead()

	buf := make([]byte, FrameLength)
	for {
		if c.isClosed() {
			return can.Frame{}, net.ErrClosed
		}
		n, err := unix.Read(fd, buf)
		if err == unix.EAGAIN || err == unix.EINTR {
			continue
		}
		if err != nil {
			return can.Frame{}, errors.Wrap(err, "reading can_frame")
		}
		if n != FrameLength {
			return can.Frame{}, errors.Newf("short can_frame read: %d bytes", n)
		}

		if frame, ok := BufferToFrame(buf); ok {
			return frame, nil
		}
	}
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) endRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reading = false
	if c.closed {
		c.release()
	}
}

// release closes the descriptor once. c.mu must be held.
func (c *Conn) release() error {
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}

// WriteFrame sends frame on the bus.
func (c *Conn) WriteFrame(frame can.Frame) error {
	buf := make([]byte, FrameLength)
	FrameToBuffer(frame, buf)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	if _, err := unix.Write(c.fd, buf); err != nil {
		return errors.Wrap(err, "writing can_frame")
	}
	return nil
}

// Close marks the socket closed. The descriptor is closed now, or by a
// pending ReadFrame when it returns.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.reading {
		return nil
	}
	return c.release()
}
