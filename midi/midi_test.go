package midi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/sample"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func encode(t *testing.T, p *model.Performance) []byte {
	var buf bytes.Buffer
	require.NoError(t, sample.Write(&buf, p))
	return buf.Bytes()
}

func TestDecodesDemo(t *testing.T) {
	p, err := Decode("demo", bytes.NewReader(encode(t, sample.Demo())))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("demo", p.Name)
	require.Len(t, p.Tracks, 2)

	melody := p.Tracks[0]
	assert.Equal("Melody", melody.Name)
	assert.Equal("piano", melody.Instrument)
	assert.False(melody.Percussion)
	assert.Len(melody.Notes, 9)

	drums := p.Tracks[1]
	assert.True(drums.Percussion)
	assert.Len(drums.Notes, 8)
	assert.Equal(17, p.NumNotes())
}

func TestDecodesTimesInSeconds(t *testing.T) {
	in := &model.Performance{Tracks: []model.Track{{
		Notes: []model.Note{
			{Start: 0.5, Duration: 0.25, Key: 69},
			{Start: 1.0, Duration: 2.0, Key: 61},
		},
	}}}
	p, err := Decode("x", bytes.NewReader(encode(t, in)))
	require.NoError(t, err)
	require.Len(t, p.Tracks[0].Notes, 2)

	byKey := map[uint8]model.Note{}
	for _, n := range p.Tracks[0].Notes {
		byKey[n.Key] = n
	}
	assert := assert.New(t)
	assert.InDelta(0.5, byKey[69].Start, 1e-6)
	assert.InDelta(0.25, byKey[69].Duration, 1e-6)
	assert.InDelta(1.0, byKey[61].Start, 1e-6)
	assert.InDelta(2.0, byKey[61].Duration, 1e-6)
}

func TestFallsBackToProgramFamilyName(t *testing.T) {
	in := &model.Performance{Tracks: []model.Track{{Notes: []model.Note{{Duration: 1, Key: 60}}}}}
	p, err := Decode("x", bytes.NewReader(encode(t, in)))
	require.NoError(t, err)
	assert.Equal(t, "piano", p.Tracks[0].Instrument)
}

func TestSplitsSingleTrackByChannel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample.WriteSingleTrack(&buf, sample.Demo()))

	p, err := Decode("demo", &buf)
	require.NoError(t, err)
	require.Len(t, p.Tracks, 2)

	assert := assert.New(t)
	melody, drums := p.Tracks[0], p.Tracks[1]
	assert.Equal("demo", melody.Name)
	assert.False(melody.Percussion)
	assert.Equal("piano", melody.Instrument)
	assert.Len(melody.Notes, 9)

	assert.Equal("demo", drums.Name)
	assert.True(drums.Percussion)
	assert.Equal("drums", drums.Instrument)
	assert.Len(drums.Notes, 8)
}

func TestProgramFamilyPerChannel(t *testing.T) {
	s := smf.New()
	s.TimeFormat = sample.Resolution
	var tr smf.Track
	tr.Add(0, midi.ProgramChange(0, 25))
	tr.Add(0, midi.ProgramChange(1, 33))
	tr.Add(0, midi.NoteOn(0, 64, 100))
	tr.Add(0, midi.NoteOn(1, 40, 100))
	tr.Add(960, midi.NoteOff(0, 64))
	tr.Add(0, midi.NoteOff(1, 40))
	tr.Close(0)
	s.Add(tr)

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	p, err := Decode("x", &buf)
	require.NoError(t, err)
	require.Len(t, p.Tracks, 2)
	assert.Equal(t, "guitar", p.Tracks[0].Instrument)
	assert.Equal(t, uint8(64), p.Tracks[0].Notes[0].Key)
	assert.Equal(t, "bass", p.Tracks[1].Instrument)
	assert.Equal(t, uint8(40), p.Tracks[1].Notes[0].Key)
}

func TestKeepsTracksWithoutNotes(t *testing.T) {
	in := &model.Performance{Tracks: []model.Track{{Name: "Conductor"}, {Notes: []model.Note{{Duration: 1, Key: 60}}}}}
	p, err := Decode("x", bytes.NewReader(encode(t, in)))
	require.NoError(t, err)
	require.Len(t, p.Tracks, 2)
	assert.Equal(t, "Conductor", p.Tracks[0].Name)
	assert.Empty(t, p.Tracks[0].Notes)
}

func TestRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty": {},
		"text":  []byte("definitely not a midi file"),
	}
	for name, dat := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := Decode(name, bytes.NewReader(dat))
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrInvalidInputFile), "got %v", err)
		})
	}
}

func TestReadFileUsesBaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.mid")
	require.NoError(t, os.WriteFile(path, encode(t, sample.Demo()), 0644))

	p, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tune", p.Name)
}
