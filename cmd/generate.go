package cmd

import (
	"io"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/karlding/canunions/pkg/codegen"
	"github.com/karlding/canunions/pkg/framedef"
)

var (
	generateMode string
	outputDir    string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateMode, "mode", "m", "header", "Output mode [header,inline]")
	generateCmd.Flags().StringVarP(&outputDir, "out", "o", defaultOutput, "Output root for header mode")
}

var generateCmd = &cobra.Command{
	Use:   "generate [source frame]",
	Short: "Generate the union for one frame, or for every frame of the config",
	Long: `With two arguments, generates the union for the named frame of the
source file. Header mode writes <out>/<ECU>/<NAME>.h; inline mode prints the
union to stdout.

Without arguments, every [[frame]] of the --config file is generated and an
umbrella header <out>/can_frames.h is written next to them.`,
	Args: func(cmd *cobra.Command, args []string) error {
		switch len(args) {
		case 2:
			return nil
		case 0:
			if configFile == "" {
				return errors.New("generate needs <source> <frame>, or --config")
			}
			return nil
		default:
			return errors.Newf("generate takes <source> <frame>, got %d arguments", len(args))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(configFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("out") {
			conf.Output = outputDir
		}
		modeOverride := ""
		if cmd.Flags().Changed("mode") {
			modeOverride = generateMode
		}

		jobs := conf.Frame
		if len(args) == 2 {
			jobs = []FrameJob{{Source: args[0], Name: args[1]}}
		}
		return runGenerate(cmd.OutOrStdout(), conf, jobs, modeOverride, len(args) == 0)
	},
}

// runGenerate renders every job in memory first and only then writes
// anything, so one failing frame leaves no output behind.
func runGenerate(out io.Writer, conf Config, jobs []FrameJob, modeOverride string, umbrella bool) error {
	gen := codegen.Generator{Includes: conf.Includes}
	if verbose {
		gen.Logger = log.Default()
	}

	sourceLines := make(map[string][]string)
	var sources []*codegen.GeneratedSource
	for _, job := range jobs {
		lines, ok := sourceLines[job.Source]
		if !ok {
			var err error
			if lines, err = framedef.LoadFile(job.Source); err != nil {
				return err
			}
			sourceLines[job.Source] = lines
		}

		modeName := conf.Mode
		if job.Mode != "" {
			modeName = job.Mode
		}
		if modeOverride != "" {
			modeName = modeOverride
		}
		mode, err := codegen.ParseMode(modeName)
		if err != nil {
			return errors.Wrapf(err, "frame %s", job.Name)
		}

		src, err := gen.GenerateLines(lines, job.Name, mode)
		if err != nil {
			return errors.Wrapf(err, "generating %s from %s", job.Name, job.Source)
		}
		log.Printf("Found %d entries for %s", len(src.Frame.Fields), job.Name)
		sources = append(sources, src)
	}

	stdout := codegen.WriterSink{W: out}
	dir := codegen.DirSink{Root: conf.Output}

	var headers []*codegen.GeneratedSource
	for _, src := range sources {
		if src.Mode == codegen.ModeInline {
			if err := stdout.Write(src); err != nil {
				return err
			}
			continue
		}
		if err := dir.Write(src); err != nil {
			return err
		}
		log.Printf("generated %s", dir.Target(src))
		headers = append(headers, src)
	}

	if umbrella && len(headers) > 0 {
		u, err := codegen.Umbrella(headers)
		if err != nil {
			return err
		}
		if err := dir.Write(u); err != nil {
			return err
		}
		log.Printf("generated %s", dir.Target(u))
	}
	return nil
}
