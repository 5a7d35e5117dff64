package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/karlding/canunions/pkg/bitlayout"
	"github.com/karlding/canunions/pkg/framedef"
)

var layoutFormat string

func init() {
	rootCmd.AddCommand(layoutCmd)

	layoutCmd.Flags().StringVarP(&layoutFormat, "format", "F", "yaml", "Output format [yaml,table]")
}

var layoutCmd = &cobra.Command{
	Use:   "layout <source> <frame>",
	Short: "Print the accessor types, masks and shifts of a frame",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, err := framedef.LoadFile(args[0])
		if err != nil {
			return err
		}
		frame, err := framedef.Parse(lines, args[1])
		if err != nil {
			return err
		}
		return runLayout(cmd.OutOrStdout(), frame, layoutFormat)
	},
}

type layoutField struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Offset      int    `yaml:"offset"`
	Length      int    `yaml:"length"`
	Type        string `yaml:"type"`
	Shift       uint   `yaml:"shift"`
	FieldMask   string `yaml:"field_mask"`
	WriteMask   string `yaml:"write_mask"`
}

type layoutDoc struct {
	Frame  string        `yaml:"frame"`
	ID     string        `yaml:"id"`
	ECU    string        `yaml:"ecu"`
	Fields []layoutField `yaml:"fields"`
}

func buildLayout(frame *framedef.FrameDescriptor) (layoutDoc, error) {
	doc := layoutDoc{
		Frame:  frame.StrippedName(),
		ID:     frame.ID,
		ECU:    frame.ECU(),
		Fields: make([]layoutField, 0, len(frame.Fields)),
	}
	for _, field := range frame.Fields {
		acc, err := bitlayout.Compute(field.Offset, field.Length)
		if err != nil {
			return doc, errors.Wrapf(err, "frame %s: field %s (line %d)", frame.Name, field.Name, field.Line)
		}
		doc.Fields = append(doc.Fields, layoutField{
			Name:        field.Name,
			Description: field.Description,
			Offset:      field.Offset,
			Length:      field.Length,
			Type:        acc.Type.CType(),
			Shift:       acc.Shift,
			FieldMask:   fmt.Sprintf("0x%x", acc.FieldMask),
			WriteMask:   fmt.Sprintf("0x%016x", acc.WriteMask),
		})
	}
	return doc, nil
}

func runLayout(out io.Writer, frame *framedef.FrameDescriptor, format string) error {
	doc, err := buildLayout(frame)
	if err != nil {
		return err
	}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, "encoding layout")
		}
		return enc.Close()
	case "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s (%s)\n", doc.Frame, doc.ID)
		fmt.Fprintln(w, "FIELD\tOFFSET\tLEN\tTYPE\tSHIFT\tWRITE MASK")
		for _, f := range doc.Fields {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%s\n", f.Name, f.Offset, f.Length, f.Type, f.Shift, f.WriteMask)
		}
		return w.Flush()
	default:
		return errors.Newf("unknown layout format %q (want yaml or table)", format)
	}
}
