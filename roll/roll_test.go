package roll

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.InDelta(t, 69, Key(440), 1e-9)
	assert.InDelta(t, 60, Key(timeline.Frequency(60)), 1e-9)
}

func TestDraw(t *testing.T) {
	segments := []model.Segment{
		{Time: 0, Tone: 0.5, Rest: 0.5, Frequency: timeline.Frequency(60)},
		{Time: 1, Tone: 0.02, Frequency: timeline.PercussionFrequency},
		{Time: 1.5, Tone: 1, Frequency: timeline.Frequency(72)},
	}
	opts := DefaultOptions()
	im, err := Draw(segments, opts)
	require.NoError(t, err)

	b := im.Bounds()
	assert.Equal(t, int(2.5*opts.PixelsPerSecond+2*margin), b.Dx())

	// the first tone is filled with the tone color
	l := newLayout(segments, opts)
	r, g, bl, _ := im.At(int(l.x(0.25)), int(l.y(60))).RGBA()
	assert.InDelta(t, toneColor.R*255, float64(r>>8), 2)
	assert.InDelta(t, toneColor.G*255, float64(g>>8), 2)
	assert.InDelta(t, toneColor.B*255, float64(bl>>8), 2)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, DefaultOptions()))

	im, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(2*margin), im.Bounds().Dx())
}

func TestDrawRejectsBadOptions(t *testing.T) {
	_, err := Draw(nil, Options{})
	assert.Error(t, err)
}
