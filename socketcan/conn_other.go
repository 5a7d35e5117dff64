//go:build !linux

package socketcan

import (
	"github.com/cockroachdb/errors"
	"go.einride.tech/can"
)

var errUnsupported = errors.New("socketcan is only available on linux")

// Conn is unavailable outside Linux.
type Conn struct{}

func Dial(ifname string) (*Conn, error) { return nil, errUnsupported }

func (c *Conn) ReadFrame() (can.Frame, error) { return can.Frame{}, errUnsupported }

func (c *Conn) WriteFrame(frame can.Frame) error { return errUnsupported }

func (c *Conn) Close() error { return nil }
