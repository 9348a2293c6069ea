package preview

import (
	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/util"
)

// StartupCompensation is subtracted from every tone to leave room for the
// synth to start the next one on time.
const StartupCompensation = 0.005

// Synth plays a schedule of tones. Clear must be called before rescheduling.
type Synth interface {
	ScheduleTone(t model.Tone)
	Clear()
	Start() error
	Stop() error
}

type Status int

const (
	Idle Status = iota
	Playing
	Stopped
)

func (s Status) String() string {
	switch s {
	case Playing:
		return "playing"
	case Stopped:
		return "stopped"
	}
	return "idle"
}

// Tones builds the preview schedule for encoded segments. Times and durations
// are scaled by tempo.
func Tones(segments []model.Segment, tempo float64) []model.Tone {
	res := make([]model.Tone, len(segments))
	for i, s := range segments {
		res[i] = model.Tone{
			At:        s.Time * tempo,
			Frequency: s.Frequency,
			Duration:  util.Max(s.Tone*tempo-StartupCompensation, 0),
		}
	}
	return res
}

// Schedule replaces whatever synth had scheduled with tones.
func Schedule(synth Synth, tones []model.Tone) {
	synth.Clear()
	for _, t := range tones {
		synth.ScheduleTone(t)
	}
}

// Length is the time the last tone ends.
func Length(tones []model.Tone) float64 {
	var end float64
	for _, t := range tones {
		end = util.Max(end, t.At+t.Duration)
	}
	return end
}

// Recorder is a Synth that only keeps the schedule. Used where audio is played
// elsewhere, e.g. by a browser client.
type Recorder struct {
	Tones   []model.Tone
	Running bool
}

func (r *Recorder) ScheduleTone(t model.Tone) {
	r.Tones = append(r.Tones, t)
}

func (r *Recorder) Clear() {
	r.Running = false
	r.Tones = nil
}

func (r *Recorder) Start() error {
	r.Running = true
	return nil
}

func (r *Recorder) Stop() error {
	r.Running = false
	return nil
}
