package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/karlding/canunions/pkg/decode"
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	addTransportFlags(monitorCmd)
	monitorCmd.MarkFlagRequired("iface")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor <source> <frame>",
	Short: "Decode one frame live from SocketCAN or a Tritium CAN-Ethernet bridge (UDP or TCP)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec, err := loadDecoder(args[0], args[1])
		if err != nil {
			return err
		}

		src, err := openBus(Transport, iface)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf("Listening for %s (0x%x) on %s %s", dec.Frame().StrippedName(), dec.ID(), Transport, iface)
		return runMonitor(ctx, cmd.OutOrStdout(), src, dec)
	},
}

// runMonitor prints every frame src delivers for dec until ctx is done or
// src fails. src is closed on return.
func runMonitor(ctx context.Context, out io.Writer, src frameSource, dec *decode.Decoder) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		src.Close()
	}()

	for {
		f, err := src.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "monitor")
		}
		if !dec.Matches(f) {
			continue
		}

		values, err := dec.Decode(f)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, decode.Format(dec.Frame().StrippedName(), values))
	}
}
