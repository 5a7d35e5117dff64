package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "canunions",
	Short: "canunions generates C unions with bit-field accessors from CAN frame descriptions",
	Long: `Reads a text description of CAN frames (FRAME headers followed by
OFFSET/LEN field lines) and emits C unions over the 8 byte payload with a
getter and setter per field, plus tooling to inspect and decode frames with
the same bit layout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.SetPrefix("canunions: ")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "TOML file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every generated accessor")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
