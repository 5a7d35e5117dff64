package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.einride.tech/can"

	"github.com/karlding/canunions/pkg/tritium"
	"github.com/karlding/canunions/socketcan"
)

var (
	// Transport is the bus access used by monitor and send
	Transport  string
	iface      string
	bridgeAddr string
	busNumber  uint8
)

func addTransportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&Transport, "transport", "t", "socketcan", "Transport type [socketcan,udp,tcp]")
	cmd.Flags().StringVarP(&iface, "iface", "i", "", "SocketCAN interface, or the network interface facing the Tritium bridge")
	cmd.Flags().StringVar(&bridgeAddr, "bridge", "", "Tritium bridge address for the tcp transport")
	cmd.Flags().Uint8Var(&busNumber, "bus", tritium.DefaultBusNumber, "Tritium bus number")
}

type frameSource interface {
	ReadFrame() (can.Frame, error)
	Close() error
}

type frameSink interface {
	WriteFrame(can.Frame) error
	Close() error
}

type busConn interface {
	frameSource
	frameSink
}

func openBus(transport, ifname string) (busConn, error) {
	switch transport {
	case "socketcan":
		conn, err := socketcan.Dial(ifname)
		if err != nil {
			return nil, err
		}
		return conn, nil
	case "udp":
		l, err := tritium.Listen(ifname, busNumber)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "tcp":
		if bridgeAddr == "" {
			return nil, errors.New("the tcp transport needs --bridge")
		}
		s, err := tritium.DialStream(bridgeAddr, ifname, busNumber)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Newf("unknown transport %q (want socketcan, udp or tcp)", transport)
	}
}
