package midi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"
)

var ErrInvalidInputFile = errors.New("invalid midi file")

// General MIDI channel 10
const percussionChannel = 9

var programFamilies = [...]string{
	"piano", "chromatic percussion", "organ", "guitar",
	"bass", "strings", "ensemble", "brass",
	"reed", "pipe", "synth lead", "synth pad",
	"synth effects", "ethnic", "percussive", "sound effects",
}

func ReadFile(path string) (*model.Performance, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read midi file %v", path)
	}
	return Decode(util.BaseName(path), bytes.NewReader(dat))
}

// Decode parses a Standard MIDI File into a Performance. Notes of one file
// track are split by channel, so a format 0 file with melody and drums gives
// one track each. File tracks without notes are kept.
func Decode(name string, r io.Reader) (p *model.Performance, e error) {
	// gomidi panics on some malformed input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			p = nil
			e = errors.Wrap(ErrInvalidInputFile, fmt.Sprint(rec))
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInputFile, err.Error())
	}

	res := &model.Performance{Name: name}
	for _, events := range s.Tracks {
		res.Tracks = append(res.Tracks, decodeTrack(s, events)...)
	}
	return res, nil
}

type noteKey struct {
	channel uint8
	key     uint8
}

func familyOf(program uint8) string {
	return programFamilies[(program&0x7f)/8]
}

func decodeTrack(s *smf.SMF, events smf.Track) []model.Track {
	var name, instrument string
	var absTicks int64

	// open notes per channel/key, oldest first
	open := make(map[noteKey][]float64)
	notes := make(map[uint8][]model.Note)
	programs := make(map[uint8]uint8)
	closeNote := func(k noteKey, end float64) {
		starts := open[k]
		if len(starts) == 0 {
			return
		}
		start := starts[0]
		open[k] = starts[1:]
		notes[k.channel] = append(notes[k.channel], model.Note{
			Start:    start,
			Duration: end - start,
			Key:      k.key,
		})
	}

	for _, event := range events {
		absTicks += int64(event.Delta)
		absTime := float64(s.TimeAt(absTicks)) / 1e6
		msg := event.Message

		var channel, key, velocity uint8
		var text string
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			k := noteKey{channel, key}
			open[k] = append(open[k], absTime)
		case msg.GetNoteEnd(&channel, &key):
			closeNote(noteKey{channel, key}, absTime)
		case msg.GetMetaTrackName(&text):
			if name == "" {
				name = text
			}
		case msg.GetMetaInstrument(&text):
			if instrument == "" {
				instrument = text
			}
		case msg.GetProgramChange(&channel, &key):
			if _, ok := programs[channel]; !ok {
				programs[channel] = key
			}
		}
	}

	// notes still sounding at the end of the track end with it
	end := float64(s.TimeAt(absTicks)) / 1e6
	for k := range open {
		for len(open[k]) > 0 {
			closeNote(k, end)
		}
	}

	channels := make([]int, 0, len(notes))
	for ch := range notes {
		channels = append(channels, int(ch))
	}
	sort.Ints(channels)

	if len(channels) == 0 {
		if instrument == "" {
			instrument = programFamilies[0]
		}
		return []model.Track{{Name: name, Instrument: instrument}}
	}

	res := make([]model.Track, 0, len(channels))
	for _, c := range channels {
		ch := uint8(c)
		track := model.Track{
			Name:       name,
			Percussion: ch == percussionChannel,
			Notes:      notes[ch],
		}
		program, hasProgram := programs[ch]
		switch {
		// the instrument meta event names the whole track
		case instrument != "" && len(channels) == 1:
			track.Instrument = instrument
		case track.Percussion:
			track.Instrument = "drums"
		case hasProgram:
			track.Instrument = familyOf(program)
		default:
			track.Instrument = programFamilies[0]
		}
		res = append(res, track)
	}
	return res
}
