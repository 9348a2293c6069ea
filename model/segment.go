package model

import "math"

// MinRest is the shortest silence emitted on its own; shorter gaps are merged
// into the preceding tone.
const MinRest = 0.020

// Segment is one encoded tone plus the rest that follows it. All durations are
// unscaled seconds; tempo is applied when rendering.
type Segment struct {
	Time      float64
	Tone      float64
	Rest      float64
	Frequency float64
}

func (s Segment) HasRest() bool {
	return s.Rest >= MinRest
}

func (s Segment) ToneMs() int {
	return int(math.Round(s.Tone * 1000))
}

func (s Segment) RestMs() int {
	if !s.HasRest() {
		return 0
	}
	return int(math.Round(s.Rest * 1000))
}

func (s Segment) Hz() int {
	return int(math.Round(s.Frequency))
}

// Tone is one entry of the preview schedule, in scaled seconds.
type Tone struct {
	At        float64 `json:"at"`
	Frequency float64 `json:"frequency"`
	Duration  float64 `json:"duration"`
}
