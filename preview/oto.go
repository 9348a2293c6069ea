package preview

import (
	"bytes"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/jsphweid/m300/model"
	"github.com/pkg/errors"
)

// OtoSynth plays the schedule on the default audio device. Only one can exist
// per process.
type OtoSynth struct {
	mu         sync.Mutex
	context    *oto.Context
	player     *oto.Player
	sampleRate int
	volume     float64
	tones      []model.Tone
	tmpBuffer  []byte
}

func NewOtoSynth(sampleRate int, volume float64) (*OtoSynth, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create oto context")
	}
	<-ready
	return &OtoSynth{context: context, sampleRate: sampleRate, volume: volume}, nil
}

func (o *OtoSynth) ScheduleTone(t model.Tone) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tones = append(o.tones, t)
}

func (o *OtoSynth) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closePlayer()
	o.tones = nil
}

// Start plays the schedule from the beginning.
func (o *OtoSynth) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closePlayer()

	// we reuse the old capacity of tmpBuffer by setting its length to zero
	o.tmpBuffer = FloatBufferTo16BitLE(Render(o.tones, o.sampleRate, o.volume), o.tmpBuffer[:0])
	o.player = o.context.NewPlayer(bytes.NewReader(o.tmpBuffer))
	o.player.Play()
	return nil
}

func (o *OtoSynth) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closePlayer()
}

func (o *OtoSynth) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player != nil && o.player.IsPlaying()
}

func (o *OtoSynth) closePlayer() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	if err != nil {
		return errors.Wrap(err, "cannot close oto player")
	}
	return nil
}
