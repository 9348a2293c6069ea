package preview

import (
	"encoding/binary"
	"math"

	"github.com/jsphweid/m300/model"
	"github.com/viterin/vek/vek32"
)

// Render synthesizes tones as a mono square wave. volume is in decibels.
func Render(tones []model.Tone, sampleRate int, volume float64) []float32 {
	buffer := make([]float32, int(math.Ceil(Length(tones)*float64(sampleRate))))
	for _, t := range tones {
		start := int(t.At * float64(sampleRate))
		end := int((t.At + t.Duration) * float64(sampleRate))
		if end > len(buffer) {
			end = len(buffer)
		}
		for i := start; i < end; i++ {
			phase := float64(i-start) * t.Frequency / float64(sampleRate)
			if phase-math.Floor(phase) < 0.5 {
				buffer[i] = 1
			} else {
				buffer[i] = -1
			}
		}
	}
	if len(buffer) > 0 {
		vek32.MulNumber_Inplace(buffer, float32(math.Pow(10, volume/20)))
	}
	return buffer
}

// FloatBufferTo16BitLE converts a float buffer to 16-bit little-endian PCM,
// appending to tmp.
func FloatBufferTo16BitLE(buff []float32, tmp []byte) []byte {
	for _, v := range buff {
		var uv int16
		if v < -1.0 {
			uv = -math.MaxInt16
		} else if v > 1.0 {
			uv = math.MaxInt16
		} else {
			uv = int16(v * math.MaxInt16)
		}
		tmp = binary.LittleEndian.AppendUint16(tmp, uint16(uv))
	}
	return tmp
}
