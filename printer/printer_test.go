package printer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort answers every written line with the next reply.
type fakePort struct {
	written bytes.Buffer
	pending bytes.Buffer
	replies []string
	closed  bool
}

func (f *fakePort) Write(b []byte) (int, error) {
	reply := "ok"
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	f.pending.WriteString(reply + "\n")
	return f.written.Write(b)
}

func (f *fakePort) Read(b []byte) (int, error) {
	return f.pending.Read(b)
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func TestCommand(t *testing.T) {
	for in, want := range map[string]string{
		"M300 P100 S440":           "M300 P100 S440",
		"  G4 P20 ; wait ":         "G4 P20",
		"; GCODE produced by m300": "",
		"# generated by m300":      "",
		"":                         "",
	} {
		assert.Equal(t, want, Command(in), in)
	}
}

func TestSend(t *testing.T) {
	port := &fakePort{replies: []string{"echo:busy: processing\nok", "ok T:20"}}
	p := New(port)

	n, err := p.Send(context.Background(), strings.NewReader("M300 P100 S440\n\nG4 P100\n; GCODE produced by m300\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "M300 P100 S440\nG4 P100\n", port.written.String())

	require.NoError(t, p.Close())
	assert.True(t, port.closed)
}

func TestSendStopsOnError(t *testing.T) {
	port := &fakePort{replies: []string{"ok", "Error:Unknown command"}}
	p := New(port)

	n, err := p.Send(context.Background(), strings.NewReader("M300 P1 S1\nM999 P1\nM300 P1 S1\n"))
	assert.True(t, errors.Is(err, ErrPrinter))
	assert.Equal(t, 1, n)
}

func TestSendCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New(&fakePort{}).Send(ctx, strings.NewReader("M300 P1 S1\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}
