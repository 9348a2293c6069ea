package chord

import (
	"math"

	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
)

var ErrInvalidNote = errors.New("invalid note")

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func validate(n model.Note) error {
	switch {
	case !validSeconds(n.Start):
		return errors.Wrapf(ErrInvalidNote, "start time %v", n.Start)
	case !validSeconds(n.Duration):
		return errors.Wrapf(ErrInvalidNote, "duration %v", n.Duration)
	case n.Key > 127:
		return errors.Wrapf(ErrInvalidNote, "key %v", n.Key)
	}
	return nil
}

// Merge concatenates copies of the notes of every selected track, in track
// order. Notes of percussion tracks are tagged as percussion. The tracks
// themselves are left untouched.
func Merge(tracks []model.Track, selection model.Selection) ([]model.Note, error) {
	var res []model.Note
	for i, track := range tracks {
		if !selection.Includes(i) {
			continue
		}
		for j, n := range track.Notes {
			if err := validate(n); err != nil {
				return nil, errors.Wrapf(err, "track %d note %d", i, j)
			}
			if track.Percussion {
				n.Percussion = true
			}
			res = append(res, n)
		}
	}
	return res, nil
}
