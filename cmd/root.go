package cmd

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/compiler"
	"github.com/jsphweid/m300/config"
	"github.com/jsphweid/m300/gcode"
	"github.com/jsphweid/m300/midi"
	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	cfg        = config.Default()

	// shared by every command that compiles
	speed     float64
	secondary bool
	dialect   string
	templates string
	tracks    []string
)

var rootCmd = &cobra.Command{
	Use:   "m300",
	Short: "Turns MIDI files into beeper G-code",
	Long: `m300 reduces the selected tracks of a MIDI file to a single melody and
writes it as M300 beep commands for 3D printer firmware, with an audio
preview of what the printer will play.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &c)
		cfg = c

		logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
		if err != nil {
			return err
		}
		cmd.SetContext(log.WithContext(cmd.Context(), logger))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "yaml config file")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.Float64Var(&speed, "speed", 1, "playback speed, 2 plays twice as fast")
	flags.BoolVar(&secondary, "secondary", false, "add a wait after every command (Duet firmware)")
	flags.StringVar(&dialect, "dialect", gcode.DefaultDialect, "output dialect")
	flags.StringVar(&templates, "templates", "", "directory of *.gcode dialect templates")
	flags.StringSliceVarP(&tracks, "tracks", "t", nil, `tracks to include as listed by "m300 tracks", or "all" (default all)`)
}

// applyFlags lets flags given on the command line win over the config.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("speed") {
		c.Speed = speed
	}
	if flags.Changed("secondary") {
		c.Secondary = secondary
	}
	if flags.Changed("dialect") {
		c.Dialect = dialect
	}
	if flags.Changed("templates") {
		c.Templates = templates
	}
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "m300",
	}), nil
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func renderer() (*gcode.Renderer, error) {
	if cfg.Templates == "" {
		return gcode.Default(), nil
	}
	return gcode.NewFromTemplates(cfg.Templates)
}

func compileOptions() (compiler.Options, error) {
	r, err := renderer()
	if err != nil {
		return compiler.Options{}, err
	}
	return compiler.Options{
		Speed:     cfg.Speed,
		Secondary: cfg.Secondary,
		Dialect:   cfg.Dialect,
		Renderer:  r,
	}, nil
}

// parseTracks turns the 1 based numbers of --tracks into a selection.
func parseTracks(values []string, numTracks int) (model.Selection, error) {
	if len(values) == 0 {
		return model.SelectAll(numTracks), nil
	}
	selection := model.NewSelection()
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, "all") {
			return model.SelectAll(numTracks), nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > numTracks {
			return nil, errors.Errorf("invalid track %q (have %d)", v, numTracks)
		}
		selection.Set(n-1, true)
	}
	return selection, nil
}

// compileFile reads path and compiles the tracks chosen with --tracks.
func compileFile(path string) (*model.Performance, *compiler.Result, error) {
	p, err := midi.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	selection, err := parseTracks(tracks, len(p.Tracks))
	if err != nil {
		return nil, nil, err
	}
	opts, err := compileOptions()
	if err != nil {
		return nil, nil, err
	}
	res, err := compiler.Compile(p, selection, opts)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not compile %v", path)
	}
	return p, res, nil
}
