package model

type SessionResponse struct {
	Id string `json:"id"`
}

type TrackInfo struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Instrument string `json:"instrument"`
	Percussion bool   `json:"percussion"`
	NumNotes   int    `json:"num_notes"`
	Selected   bool   `json:"selected"`
}

type SelectionRequestBody struct {
	Tracks []int `json:"tracks"`
}

type CompileRequestBody struct {
	// zero values fall back to the server defaults
	Speed     float64 `json:"speed"`
	Secondary *bool   `json:"secondary"`
	Dialect   string  `json:"dialect"`
}

type CompileResponse struct {
	Gcode    string `json:"gcode"`
	Segments int    `json:"segments"`
	Tones    []Tone `json:"tones"`
}

type ExportRequestBody struct {
	Destination string `json:"destination"`
	Name        string `json:"name"`
}

type ExportResponse struct {
	Location string `json:"location"`
}

type PlaybackResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
