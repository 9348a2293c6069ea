package chord

import (
	"sort"

	"github.com/jsphweid/m300/model"
)

// Sort returns the notes ordered by start time. Equal start times keep their
// input order.
func Sort(notes []model.Note) []model.Note {
	res := make([]model.Note, len(notes))
	copy(res, notes)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Start < res[j].Start
	})
	return res
}

func pitchOf(n model.Note) model.Pitch {
	if n.Percussion {
		return model.Percussion
	}
	return model.Pitched(n.Key)
}

// Compress reduces every run of notes sharing a start time to one event: the
// highest non-percussion pitch with that note's duration, or the percussion
// marker when the run has only percussion.
func Compress(notes []model.Note) []model.Event {
	sorted := Sort(notes)
	var res []model.Event

	for curr := 0; curr < len(sorted); curr++ {
		first := sorted[curr]
		highest := pitchOf(first)
		duration := first.Duration

		// NOTE: exact float comparison, start times of one chord come
		// from the same tick
		for curr+1 < len(sorted) && sorted[curr+1].Start == first.Start {
			curr++
			n := sorted[curr]
			if n.Percussion {
				continue
			}
			if p := model.Pitched(n.Key); p.Higher(highest) {
				highest = p
				duration = n.Duration
			}
		}

		res = append(res, model.Event{
			Time:     first.Start,
			Duration: duration,
			Pitch:    highest,
		})
	}
	return res
}
