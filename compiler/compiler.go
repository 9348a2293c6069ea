package compiler

import (
	"github.com/jsphweid/m300/chord"
	"github.com/jsphweid/m300/gcode"
	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/preview"
	"github.com/jsphweid/m300/timeline"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
)

// MinSpeed keeps the tempo multiplier finite.
const MinSpeed = 0.01

type Options struct {
	// Speed is the user facing speed: 2 plays twice as fast.
	Speed     float64
	Secondary bool
	Dialect   string
	Renderer  *gcode.Renderer
}

type Result struct {
	Text     string
	Segments []model.Segment
	Tones    []model.Tone
	Tempo    float64
}

// TempoMultiplier converts a speed into the factor every duration is scaled by.
func TempoMultiplier(speed float64) float64 {
	return 1 / util.Max(speed, MinSpeed)
}

// Compile reduces the selected tracks of p to a monophonic command stream and
// its preview schedule.
func Compile(p *model.Performance, selection model.Selection, opts Options) (*Result, error) {
	notes, err := chord.Merge(p.Tracks, selection)
	if err != nil {
		return nil, errors.Wrap(err, "could not merge tracks")
	}
	segments := timeline.Encode(chord.Compress(notes))

	renderer := opts.Renderer
	if renderer == nil {
		renderer = gcode.Default()
	}
	tempo := TempoMultiplier(opts.Speed)
	text, err := renderer.Render(segments, gcode.Options{
		Tempo:     tempo,
		Secondary: opts.Secondary,
		Dialect:   opts.Dialect,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Text:     text,
		Segments: segments,
		Tones:    preview.Tones(segments, tempo),
		Tempo:    tempo,
	}, nil
}
