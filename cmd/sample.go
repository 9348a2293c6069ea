package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/sample"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var singleTrack bool

func init() {
	sampleCmd.Flags().BoolVar(&singleTrack, "single-track", false, "put melody and drums on two channels of one track")
	rootCmd.AddCommand(sampleCmd)
}

var sampleCmd = &cobra.Command{
	Use:   "sample [file]",
	Short: "Writes a small demo MIDI file",
	Long:  `Writes a small demo MIDI file with a melody, a chord and a drum track.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "demo.mid"
		if len(args) == 1 {
			path = args[0]
		}
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "could not create %v", path)
		}
		defer f.Close()

		write := sample.Write
		if singleTrack {
			write = sample.WriteSingleTrack
		}
		if err := write(f, sample.Demo()); err != nil {
			return err
		}
		log.FromContext(cmd.Context()).Info("wrote sample", "file", path)
		return nil
	},
}
