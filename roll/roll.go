package roll

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/timeline"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
	"golang.org/x/image/font/gofont/goregular"
)

type Color struct {
	R, G, B float64
}

var (
	background = Color{0.17, 0.17, 0.17}
	toneColor  = Color{0.33, 0.67, 0.93}
	drumColor  = Color{0.93, 0.55, 0.27}
)

type Options struct {
	PixelsPerSecond float64
	// height of one semitone
	KeyHeight float64
	Tempo     float64
}

func DefaultOptions() Options {
	return Options{PixelsPerSecond: 200, KeyHeight: 6, Tempo: 1}
}

const (
	margin     = 30.0
	drumLaneH  = 20.0
	labelSize  = 10.0
	lowestKey  = 21
	highestKey = 108
)

// Key maps a frequency back to its fractional MIDI key.
func Key(hz float64) float64 {
	return 69 + 12*math.Log2(hz/440)
}

func isDrum(s model.Segment) bool {
	return s.Frequency == timeline.PercussionFrequency
}

type layout struct {
	opts   Options
	lo, hi int
	w, h   float64
}

func newLayout(segments []model.Segment, opts Options) layout {
	l := layout{opts: opts, lo: 60, hi: 72}
	var end float64
	for _, s := range segments {
		end = util.Max(end, (s.Time+s.Tone+s.Rest)*opts.Tempo)
		if isDrum(s) {
			continue
		}
		k := int(math.Round(Key(s.Frequency)))
		l.lo = util.Min(l.lo, k)
		l.hi = util.Max(l.hi, k)
	}
	l.lo = util.Clamp(l.lo-2, lowestKey, highestKey)
	l.hi = util.Clamp(l.hi+2, lowestKey, highestKey)
	l.w = math.Ceil(end*opts.PixelsPerSecond) + 2*margin
	l.h = float64(l.hi-l.lo+1)*opts.KeyHeight + drumLaneH + 2*margin
	return l
}

func (l layout) x(seconds float64) float64 {
	return margin + seconds*l.opts.Tempo*l.opts.PixelsPerSecond
}

func (l layout) y(key float64) float64 {
	return margin + (float64(l.hi)-key)*l.opts.KeyHeight
}

func setRGBColor(dc *gg.Context, c Color) {
	dc.SetRGB(c.R, c.G, c.B)
}

func drawGrid(dc *gg.Context, l layout) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return errors.Wrap(err, "could not parse font")
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: labelSize}))

	for key := l.lo; key <= l.hi; key++ {
		if key%12 != 0 {
			continue
		}
		y := l.y(float64(key))
		dc.SetRGBA(1, 1, 1, 0.3)
		dc.SetLineWidth(0.5)
		dc.DrawLine(margin, y, l.w-margin, y)
		dc.Stroke()
		dc.DrawString(fmt.Sprintf("C%d", key/12-1), 2, y+labelSize/2)
	}

	seconds := int((l.w - 2*margin) / l.opts.PixelsPerSecond)
	for sec := 0; sec <= seconds; sec++ {
		x := margin + float64(sec)*l.opts.PixelsPerSecond
		dc.SetRGBA(1, 1, 1, 0.1)
		dc.SetLineWidth(0.5)
		dc.DrawLine(x, margin, x, l.h-margin)
		dc.Stroke()
		dc.SetRGBA(1, 1, 1, 0.5)
		dc.DrawString(fmt.Sprintf("%ds", sec), x+2, l.h-margin/3)
	}
	return nil
}

func drawSegment(dc *gg.Context, l layout, s model.Segment) {
	x := l.x(s.Time)
	w := util.Max(s.Tone*l.opts.Tempo*l.opts.PixelsPerSecond, 1)
	if isDrum(s) {
		dc.DrawRectangle(x, l.h-margin-drumLaneH, w, drumLaneH)
		setRGBColor(dc, drumColor)
	} else {
		key := math.Round(Key(s.Frequency))
		dc.DrawRectangle(x, l.y(key)-l.opts.KeyHeight/2, w, l.opts.KeyHeight)
		setRGBColor(dc, toneColor)
	}
	dc.FillPreserve()
	dc.SetRGBA(0, 0, 0, 1)
	dc.SetLineWidth(1)
	dc.Stroke()
}

// Draw renders segments as a piano roll: time runs left to right, pitch
// bottom to top, drum hits in a lane of their own.
func Draw(segments []model.Segment, opts Options) (image.Image, error) {
	if opts.PixelsPerSecond <= 0 || opts.KeyHeight <= 0 || opts.Tempo <= 0 {
		return nil, errors.Errorf("invalid roll options %+v", opts)
	}
	l := newLayout(segments, opts)
	dc := gg.NewContext(int(l.w), int(l.h))

	setRGBColor(dc, background)
	dc.DrawRectangle(0, 0, l.w, l.h)
	dc.Fill()

	if err := drawGrid(dc, l); err != nil {
		return nil, err
	}
	for _, s := range segments {
		drawSegment(dc, l, s)
	}
	return dc.Image(), nil
}

// Write draws segments and encodes the result as PNG.
func Write(w io.Writer, segments []model.Segment, opts Options) error {
	im, err := Draw(segments, opts)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(im)
	return errors.Wrap(dc.EncodePNG(w), "could not encode png")
}
