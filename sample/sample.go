package sample

import (
	"io"
	"math"
	"sort"

	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const Resolution = smf.MetricTicks(960)

// BPM of every created file, so one second is two quarter notes.
const BPM = 120.0

func ticks(seconds float64) uint64 {
	return uint64(math.Round(seconds * BPM / 60 * float64(Resolution)))
}

type timedMsg struct {
	ticks uint64
	off   bool
	msg   midi.Message
}

func channelFor(index int, percussion bool) uint8 {
	if percussion {
		return 9
	}
	ch := uint8(index % 15)
	if ch >= 9 {
		ch++
	}
	return ch
}

func noteMessages(track model.Track, ch uint8) []timedMsg {
	var msgs []timedMsg
	for _, n := range track.Notes {
		msgs = append(msgs,
			timedMsg{ticks: ticks(n.Start), msg: midi.NoteOn(ch, n.Key, 100)},
			timedMsg{ticks: ticks(n.Start + n.Duration), off: true, msg: midi.NoteOff(ch, n.Key)},
		)
	}
	return msgs
}

func addSorted(track *smf.Track, msgs []timedMsg) {
	// note offs first so back to back notes on one key pair up correctly
	sort.SliceStable(msgs, func(a, b int) bool {
		if msgs[a].ticks != msgs[b].ticks {
			return msgs[a].ticks < msgs[b].ticks
		}
		return msgs[a].off && !msgs[b].off
	})

	var absTicks uint64
	for _, m := range msgs {
		track.Add(uint32(m.ticks-absTicks), m.msg)
		absTicks = m.ticks
	}
	track.Close(0)
}

// Create encodes a performance as a format 1 SMF. It is the inverse of
// midi.Decode up to tick resolution.
func Create(p *model.Performance) *smf.SMF {
	res := smf.New()
	res.TimeFormat = Resolution

	for i, track := range p.Tracks {
		var newTrack smf.Track
		if i == 0 {
			newTrack.Add(0, smf.MetaTempo(BPM))
		}
		if track.Name != "" {
			newTrack.Add(0, smf.MetaTrackSequenceName(track.Name))
		}
		if track.Instrument != "" {
			newTrack.Add(0, smf.MetaInstrument(track.Instrument))
		}
		addSorted(&newTrack, noteMessages(track, channelFor(i, track.Percussion)))
		res.Add(newTrack)
	}

	return res
}

// CreateSingleTrack puts every track of p on its own channel of one SMF
// track, the way format 0 files are laid out. Track names and instruments are
// lost.
func CreateSingleTrack(p *model.Performance) *smf.SMF {
	res := smf.New()
	res.TimeFormat = Resolution

	var newTrack smf.Track
	newTrack.Add(0, smf.MetaTempo(BPM))
	if p.Name != "" {
		newTrack.Add(0, smf.MetaTrackSequenceName(p.Name))
	}
	var msgs []timedMsg
	for i, track := range p.Tracks {
		msgs = append(msgs, noteMessages(track, channelFor(i, track.Percussion))...)
	}
	addSorted(&newTrack, msgs)
	res.Add(newTrack)
	return res
}

func Write(w io.Writer, p *model.Performance) error {
	return write(w, Create(p))
}

func WriteSingleTrack(w io.Writer, p *model.Performance) error {
	return write(w, CreateSingleTrack(p))
}

func write(w io.Writer, s *smf.SMF) error {
	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "could not write midi file")
	}
	return nil
}

// Demo is a short two track piece with a chord, a rest and a drum track.
func Demo() *model.Performance {
	melody := model.Track{Name: "Melody", Instrument: "piano"}
	for i, key := range []uint8{60, 62, 64, 65, 67} {
		melody.Notes = append(melody.Notes, model.Note{Start: float64(i) * 0.5, Duration: 0.45, Key: key})
	}
	// C major chord after a rest
	for _, key := range []uint8{60, 64, 67, 72} {
		melody.Notes = append(melody.Notes, model.Note{Start: 3, Duration: 1, Key: key})
	}

	drums := model.Track{Name: "Drums", Instrument: "drums", Percussion: true}
	for i := 0; i < 8; i++ {
		drums.Notes = append(drums.Notes, model.Note{Start: float64(i) * 0.5, Duration: 0.1, Key: 36})
	}

	return &model.Performance{Name: "demo", Tracks: []model.Track{melody, drums}}
}
