package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/m300/export"
	"github.com/jsphweid/m300/printer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	port string
	baud int
)

func init() {
	sendCmd.Flags().StringVarP(&port, "port", "p", "", "serial port (default serial.port)")
	sendCmd.Flags().IntVarP(&baud, "baud", "b", 0, "baud rate (default serial.baud)")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Plays a file on a printer over serial",
	Long: `Plays a file on a printer over serial. MIDI files are compiled first,
.gcode files are sent as they are.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.FromContext(cmd.Context())
		commands, err := commandsFor(args[0])
		if err != nil {
			return err
		}

		portName, rate := cfg.Serial.Port, cfg.Serial.Baud
		if port != "" {
			portName = port
		}
		if baud != 0 {
			rate = baud
		}
		p, err := printer.Open(portName, rate, "/dev/ttyUSB1", "/dev/ttyACM0")
		if err != nil {
			return err
		}
		defer p.Close()

		n, err := p.Send(cmd.Context(), commands)
		logger.Info("sent", "port", portName, "commands", n)
		return err
	},
}

func commandsFor(path string) (io.Reader, error) {
	if strings.EqualFold(filepath.Ext(path), export.Extension) {
		dat, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read %v", path)
		}
		return bytes.NewReader(dat), nil
	}
	_, res, err := compileFile(path)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(res.Text), nil
}
