package tritium

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.einride.tech/can"
)

func multicastInterface(t *testing.T) string {
	t.Helper()
	ifaces, err := net.Interfaces()
	require.NoError(t, err)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagMulticast != 0 {
			return iface.Name
		}
	}
	t.Skip("no multicast capable interface")
	return ""
}

func TestListenerLoopback(t *testing.T) {
	l, err := Listen(multicastInterface(t), DefaultBusNumber)
	if err != nil {
		t.Skipf("cannot join %s: %v", Group, err)
	}

	sent := can.Frame{ID: 0x218, Length: 2, Data: can.Data{0x05, 0x04}}
	if err := l.WriteFrame(sent); err != nil {
		l.Close()
		t.Skipf("cannot multicast on this host: %v", err)
	}

	// multicast loopback delivers our own datagram
	require.NoError(t, l.p.SetReadDeadline(time.Now().Add(2*time.Second)))
	got, err := l.ReadFrame()
	if err != nil {
		l.Close()
		t.Skipf("multicast loopback unavailable: %v", err)
	}
	assert.Equal(t, sent, got)

	// leaving the group fails unless it was joined, so a clean Close
	// shows the membership was dropped
	assert.NoError(t, l.Close())
}
