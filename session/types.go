// Package session holds the transcript model for one transcription run:
// timestamped segments, speaker assignment and the merged, rendered output.
package session

// UnknownSpeaker labels text that no diarization turn overlaps.
const UnknownSpeaker = "Unknown"

// Segment is a span of speech in seconds. Speaker is an anonymous
// diarization label, a resolved name or the self-track label.
type Segment struct {
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Speaker string  `json:"speaker" yaml:"speaker"`
	Text    string  `json:"text" yaml:"text"`
}

// Valid reports whether the segment has a positive duration.
func (s Segment) Valid() bool {
	return s.End > s.Start
}

func (s Segment) Duration() float64 {
	if !s.Valid() {
		return 0
	}
	return s.End - s.Start
}

// Turn is one diarization result: a time range owned by an anonymous label.
type Turn struct {
	Start float64
	End   float64
	Label string
}
