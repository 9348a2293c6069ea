package model

import "fmt"

// Pitch is either a pitched key or the percussion marker. The zero value is
// the percussion marker, which sorts below every key.
type Pitch struct {
	key     uint8
	pitched bool
}

var Percussion = Pitch{}

func Pitched(key uint8) Pitch {
	return Pitch{key: key, pitched: true}
}

func (p Pitch) Key() (uint8, bool) {
	return p.key, p.pitched
}

func (p Pitch) IsPercussion() bool {
	return !p.pitched
}

// Higher reports whether p is strictly above other.
func (p Pitch) Higher(other Pitch) bool {
	if !p.pitched {
		return false
	}
	if !other.pitched {
		return true
	}
	return p.key > other.key
}

func (p Pitch) String() string {
	if !p.pitched {
		return "percussion"
	}
	return fmt.Sprintf("%d", p.key)
}

// Event is what remains of a chord after reduction to a single pitch.
type Event struct {
	Time     float64
	Duration float64

	// NOTE: Duration is meaningless when Pitch is Percussion
	Pitch Pitch
}
