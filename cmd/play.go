package cmd

import (
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/preview"
	"github.com/jsphweid/m300/session"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Previews what the printer will play",
	Long: `Previews what the printer will play on the default audio device, as a
square wave with the same timing as the compiled output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		logger := log.FromContext(ctx)

		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "could not open %v", args[0])
		}
		defer f.Close()

		synth, err := preview.NewOtoSynth(cfg.Preview.SampleRate, cfg.Preview.Volume)
		if err != nil {
			return err
		}
		sess := session.New(synth, session.WithLogger(logger))
		p, err := sess.Load(util.BaseName(args[0]), f)
		if err != nil {
			return err
		}
		selection, err := parseTracks(tracks, len(p.Tracks))
		if err != nil {
			return err
		}
		sess.SetSelection(selection.Indices())

		opts, err := compileOptions()
		if err != nil {
			return err
		}
		res, err := sess.Compile(ctx, opts)
		if err != nil {
			return err
		}
		if err := sess.Play(); err != nil {
			return err
		}
		length := time.Duration(preview.Length(res.Tones) * float64(time.Second))
		logger.Info("playing", "file", p.Name, "tones", len(res.Tones), "length", length.Round(time.Millisecond))

		select {
		case <-time.After(length):
		case <-ctx.Done():
		}
		return sess.Stop()
	},
}
