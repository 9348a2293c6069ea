package timeline

import (
	"math"

	"github.com/jsphweid/m300/model"
)

const (
	PercussionDuration  = 0.020
	PercussionFrequency = 100.0

	// frequency of key 69
	ConcertA = 440.0
)

// Frequency maps a MIDI key to Hz, equal tempered around A4 = 440.
func Frequency(key uint8) float64 {
	return ConcertA / 32 * math.Pow(2, (float64(key)-9)/12)
}

// Encode turns chord-reduced events into tone/rest segments. A tone is cut off
// where the next event starts. Gaps shorter than model.MinRest are merged into
// the tone before them. The last event sounds for its full duration.
func Encode(events []model.Event) []model.Segment {
	res := make([]model.Segment, 0, len(events))
	for i, e := range events {
		frequency := PercussionFrequency
		duration := PercussionDuration
		if key, ok := e.Pitch.Key(); ok {
			frequency = Frequency(key)
			duration = e.Duration
		}

		nextTime := e.Time + duration
		if i+1 < len(events) {
			nextTime = events[i+1].Time
		}

		gap := nextTime - e.Time
		trimmed := math.Min(gap, duration)
		pause := gap - trimmed

		seg := model.Segment{Time: e.Time, Frequency: frequency}
		if pause < model.MinRest {
			seg.Tone = trimmed + pause
		} else {
			seg.Tone = trimmed
			seg.Rest = pause
		}
		res = append(res, seg)
	}
	return res
}
