package cmd

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/karlding/canunions/pkg/decode"
)

func init() {
	rootCmd.AddCommand(sendCmd)

	addTransportFlags(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <source> <frame> [NAME=value...]",
	Short: "Encode a frame the way the generated setters do, and optionally send it",
	Long: `Calls set_NAME(value) for every assignment, in order, on a zeroed union
and prints the frame export_frame would produce, in candump notation. Values
are integers in any Go literal base, or true/false. With --iface the frame
is also put on the bus over --transport.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec, err := loadDecoder(args[0], args[1])
		if err != nil {
			return err
		}
		assignments, err := parseAssignments(args[2:])
		if err != nil {
			return err
		}

		var sink frameSink
		if iface != "" {
			bus, err := openBus(Transport, iface)
			if err != nil {
				return err
			}
			defer bus.Close()
			sink = bus
		}
		return runSend(cmd.OutOrStdout(), dec, assignments, sink)
	},
}

func parseAssignments(args []string) ([]decode.Assignment, error) {
	assignments := make([]decode.Assignment, 0, len(args))
	for _, arg := range args {
		name, text, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, errors.Newf("assignment %q is not NAME=value", arg)
		}
		value, err := parseValue(text)
		if err != nil {
			return nil, errors.Wrapf(err, "assignment %s", name)
		}
		assignments = append(assignments, decode.Assignment{Field: name, Value: value})
	}
	return assignments, nil
}

// parseValue accepts what a C caller could pass to a setter. Negative
// numbers keep their two's complement bits.
func parseValue(text string) (uint64, error) {
	switch text {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		return uint64(v), nil
	}
	v, err := strconv.ParseUint(text, 0, 64)
	if err != nil {
		return 0, errors.Newf("%q is not an integer or boolean", text)
	}
	return v, nil
}

func runSend(out io.Writer, dec *decode.Decoder, assignments []decode.Assignment, sink frameSink) error {
	f, err := dec.Encode(assignments...)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, f.String())

	if sink == nil {
		return nil
	}
	if err := sink.WriteFrame(f); err != nil {
		return errors.Wrapf(err, "sending %s", dec.Frame().StrippedName())
	}
	log.Printf("sent %s", f.String())
	return nil
}
