package compiler

import (
	"sort"
	"strings"

	"github.com/jsphweid/m300/timeline"
)

type Report struct {
	Tones       int
	Rests       int
	Percussion  int
	Lines       int
	Seconds     float64
	Frequencies []int
}

// Report summarizes a result the way it will play on the device.
func (r *Result) Report() Report {
	var rep Report
	seen := map[int]bool{}
	for _, s := range r.Segments {
		rep.Tones++
		rep.Seconds += s.Tone * r.Tempo
		if s.HasRest() {
			rep.Rests++
			rep.Seconds += s.Rest * r.Tempo
		}
		// no key maps to exactly 100Hz
		if s.Frequency == timeline.PercussionFrequency {
			rep.Percussion++
		}
		seen[s.Hz()] = true
	}
	for hz := range seen {
		rep.Frequencies = append(rep.Frequencies, hz)
	}
	sort.Ints(rep.Frequencies)
	rep.Lines = strings.Count(r.Text, "\n")
	return rep
}
