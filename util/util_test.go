package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0.01, Clamp(0.0, 0.01, 100))
	assert.Equal(2.5, Clamp(2.5, 0.01, 100))
	assert.Equal(100, Clamp(400, 0, 100))
}

func TestSum(t *testing.T) {
	assert.Equal(t, uint64(6), Sum([]uint8{1, 2, 3}))
}

func TestGathersOnlyMidiFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mid", "b.MIDI", "c.txt", "sub/d.mid"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte{}, 0644))
	}

	paths, err := GatherAllMidiPaths(dir, 0)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	paths, err = GatherAllMidiPaths(dir, 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "song", BaseName("/tmp/x/song.mid"))
}
