package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/karlding/canunions/pkg/framedef"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list <source>",
	Short: "List the frames of a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.OutOrStdout(), args[0])
	},
}

func runList(out io.Writer, path string) error {
	lines, err := framedef.LoadFile(path)
	if err != nil {
		return err
	}
	frames, err := framedef.ListFrames(lines)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAME\tID\tFIELDS\tLINE")
	for _, f := range frames {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", f.Name, f.ID, f.FieldLines, f.Line)
	}
	return w.Flush()
}
