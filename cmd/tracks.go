package cmd

import (
	"fmt"

	"github.com/jsphweid/m300/midi"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tracksCmd)
}

var tracksCmd = &cobra.Command{
	Use:   "tracks <file>",
	Short: "Lists the tracks of a MIDI file",
	Long:  `Lists the tracks of a MIDI file with the numbers --tracks expects.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := midi.ReadFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, track := range p.Tracks {
			fmt.Fprintf(out, "Track %d: %v - %d notes", i+1, track.Instrument, len(track.Notes))
			if track.Name != "" {
				fmt.Fprintf(out, " (%v)", track.Name)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
