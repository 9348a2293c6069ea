package printer

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"go.bug.st/serial.v1"
)

var ErrPrinter = errors.New("printer reported an error")

// Printer streams commands to a Marlin style firmware, one line at a time,
// waiting for "ok" before sending the next.
type Printer struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// Open connects to a serial port. When the port can't be opened the
// fallbacks are tried in order.
func Open(portName string, baud int, fallbacks ...string) (*Printer, error) {
	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(portName, mode)
	if err != nil {
		for _, alt := range fallbacks {
			port, err = serial.Open(alt, mode)
			if err == nil {
				log.Warn("port not available, using fallback", "port", portName, "fallback", alt)
				break
			}
		}
		if err != nil {
			return nil, errors.Wrapf(err, "could not open serial port %v", portName)
		}
	}
	port.ResetInputBuffer()
	return New(port), nil
}

func New(port io.ReadWriteCloser) *Printer {
	return &Printer{port: port, reader: bufio.NewReader(port)}
}

func (p *Printer) Close() error {
	return p.port.Close()
}

// Command strips comments and whitespace from a line. An empty result means
// there is nothing to send.
func Command(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

// Send streams every command of r and returns how many were acknowledged.
func (p *Printer) Send(ctx context.Context, r io.Reader) (int, error) {
	logger := log.FromContext(ctx)
	scanner := bufio.NewScanner(r)
	var sent int
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		cmd := Command(scanner.Text())
		if cmd == "" {
			continue
		}
		if _, err := io.WriteString(p.port, cmd+"\n"); err != nil {
			return sent, errors.Wrapf(err, "could not write %q", cmd)
		}
		if err := p.waitOk(logger); err != nil {
			return sent, errors.Wrapf(err, "command %q", cmd)
		}
		sent++
	}
	if err := scanner.Err(); err != nil {
		return sent, errors.Wrap(err, "could not read commands")
	}
	return sent, nil
}

func (p *Printer) waitOk(logger *log.Logger) error {
	for {
		line, err := p.reader.ReadString('\n')
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ok"):
			return nil
		case strings.HasPrefix(line, "Error"):
			return errors.Wrap(ErrPrinter, line)
		case line != "":
			// echo:, busy: and friends
			logger.Debug("printer", "says", line)
		}
		if err != nil {
			return errors.Wrap(err, "no acknowledgement")
		}
	}
}
