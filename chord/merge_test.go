package chord

import (
	"math"
	"testing"

	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracks() []model.Track {
	return []model.Track{
		{Name: "lead", Notes: []model.Note{{Start: 0, Duration: 1, Key: 69}}},
		{Name: "drums", Percussion: true, Notes: []model.Note{{Start: 0.5, Duration: 0.1, Key: 36}}},
		{Name: "bass", Notes: []model.Note{{Start: 0, Duration: 2, Key: 33}}},
	}
}

func TestMergesOnlySelectedTracks(t *testing.T) {
	notes, err := Merge(tracks(), model.NewSelection(0, 2))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Len(notes, 2)
	assert.Equal(uint8(69), notes[0].Key)
	assert.Equal(uint8(33), notes[1].Key)
}

func TestEmptySelection(t *testing.T) {
	notes, err := Merge(tracks(), model.NewSelection())
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTagsPercussionWithoutMutatingTracks(t *testing.T) {
	in := tracks()
	notes, err := Merge(in, model.NewSelection(1))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.True(notes[0].Percussion)
	assert.False(in[1].Notes[0].Percussion)
}

func TestIgnoresOutOfRangeIndices(t *testing.T) {
	notes, err := Merge(tracks(), model.NewSelection(0, 7, -1))
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestRejectsMalformedNotes(t *testing.T) {
	cases := map[string]model.Note{
		"nan start":         {Start: math.NaN(), Duration: 1},
		"negative start":    {Start: -1, Duration: 1},
		"infinite duration": {Start: 0, Duration: math.Inf(1)},
		"negative duration": {Start: 0, Duration: -0.5},
		"key out of range":  {Start: 0, Duration: 1, Key: 128},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			in := []model.Track{{Notes: []model.Note{n}}}
			_, err := Merge(in, model.NewSelection(0))
			assert.True(t, errors.Is(err, ErrInvalidNote), "got %v", err)
		})
	}
}
