package model

// Note is one decoded note. Start and Duration are in seconds.
type Note struct {
	Start      float64
	Duration   float64
	Key        uint8
	Percussion bool
}

type Track struct {
	Name       string
	Instrument string
	Percussion bool
	Notes      []Note
}

// Performance is a decoded MIDI file. Track order matches the file.
type Performance struct {
	Name   string
	Tracks []Track
}

func (p *Performance) NumNotes() int {
	var n int
	for _, t := range p.Tracks {
		n += len(t.Notes)
	}
	return n
}
