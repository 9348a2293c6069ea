package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/export"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	output   string
	stdout   bool
	safe     bool
	maxFiles int
)

func init() {
	compileCmd.Flags().StringVarP(&output, "output", "o", "", `directory, file://, s3://bucket/prefix or "-" (default output_dir)`)
	compileCmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "write to standard output")
	compileCmd.Flags().BoolVarP(&safe, "safe", "n", false, "never overwrite a file with different contents")
	compileCmd.Flags().IntVar(&maxFiles, "max", 0, "compile at most this many files per directory")
	rootCmd.AddCommand(compileCmd)
}

var compileCmd = &cobra.Command{
	Use:   "compile <file or directory>...",
	Short: "Compiles MIDI files to G-code",
	Long: `Compiles MIDI files to G-code. Directories are searched for .mid and .midi
files. Every output is named after its input with a .gcode extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		destination := cfg.OutputDir
		if cmd.Flags().Changed("output") {
			destination = output
		}
		if stdout {
			destination = "-"
		}
		target, err := export.Resolve(destination, export.Options{
			Safe:     safe,
			Stdout:   cmd.OutOrStdout(),
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			return err
		}

		paths, err := inputPaths(args, maxFiles)
		if err != nil {
			return err
		}
		return compileAll(cmd, paths, target)
	},
}

// inputPaths expands directories to the midi files below them.
func inputPaths(args []string, maxNum int) ([]string, error) {
	var res []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read %v", arg)
		}
		if !info.IsDir() {
			res = append(res, arg)
			continue
		}
		found, err := util.GatherAllMidiPaths(arg, maxNum)
		if err != nil {
			return nil, err
		}
		res = append(res, found...)
	}
	return res, nil
}

func compileAll(cmd *cobra.Command, paths []string, target export.Target) error {
	logger := log.FromContext(cmd.Context())
	for _, path := range paths {
		p, res, err := compileFile(path)
		if err != nil {
			return err
		}
		loc, err := target.Save(cmd.Context(), p.Name, []byte(res.Text))
		if err != nil {
			return err
		}
		logger.Info("compiled", "input", path, "output", loc, "segments", len(res.Segments))
	}
	return nil
}
