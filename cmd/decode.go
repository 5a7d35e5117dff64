package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.einride.tech/can"

	"github.com/karlding/canunions/pkg/decode"
	"github.com/karlding/canunions/pkg/framedef"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <source> <frame> <ID#DATA>...",
	Short: "Decode candump style frames with the layout of a frame",
	Long: `Decodes each frame given in candump notation, e.g. 218#0102030405060708,
exactly as import_frame followed by the generated getters would.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec, err := loadDecoder(args[0], args[1])
		if err != nil {
			return err
		}
		return runDecode(cmd.OutOrStdout(), dec, args[2:])
	},
}

func loadDecoder(source, frameName string) (*decode.Decoder, error) {
	lines, err := framedef.LoadFile(source)
	if err != nil {
		return nil, err
	}
	frame, err := framedef.Parse(lines, frameName)
	if err != nil {
		return nil, err
	}
	return decode.NewDecoder(frame)
}

func runDecode(out io.Writer, dec *decode.Decoder, frames []string) error {
	for _, s := range frames {
		var f can.Frame
		if err := f.UnmarshalString(s); err != nil {
			return errors.Wrapf(err, "parsing %q", s)
		}
		values, err := dec.Decode(f)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s\n", dec.Frame().StrippedName(), f.String())
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, v := range values {
			fmt.Fprintf(w, "  %s\t%s\t0x%x\t%s\n", v.Field.Name, v, v.Raw, v.Field.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
