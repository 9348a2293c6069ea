package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/roll"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	rollOutput string
	rollScale  float64
)

func init() {
	rollCmd.Flags().StringVarP(&rollOutput, "output", "o", "", "png file (default <name>.png)")
	rollCmd.Flags().Float64Var(&rollScale, "pixels-per-second", roll.DefaultOptions().PixelsPerSecond, "horizontal scale")
	rootCmd.AddCommand(rollCmd)
}

var rollCmd = &cobra.Command{
	Use:   "roll <file>",
	Short: "Draws the compiled melody as a piano roll",
	Long:  `Draws the compiled melody as a piano roll PNG, at the playback speed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, res, err := compileFile(args[0])
		if err != nil {
			return err
		}
		path := rollOutput
		if path == "" {
			path = p.Name + ".png"
		}

		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "could not create %v", path)
		}
		defer f.Close()

		opts := roll.DefaultOptions()
		opts.PixelsPerSecond = rollScale
		opts.Tempo = res.Tempo
		if err := roll.Write(f, res.Segments, opts); err != nil {
			return err
		}
		log.FromContext(cmd.Context()).Info("drew piano roll", "file", path, "segments", len(res.Segments))
		return nil
	},
}
