package session

// AssignSpeakers labels each transcribed segment with the turn that overlaps
// it the most. Segments with no positive overlap get UnknownSpeaker. The
// input slice is not modified.
func AssignSpeakers(texts []Segment, turns []Turn) []Segment {
	result := make([]Segment, len(texts))
	for i, seg := range texts {
		seg.Speaker = findBestSpeaker(seg.Start, seg.End, turns)
		result[i] = seg
	}
	return result
}

// findBestSpeaker returns the label with the largest overlap; the earliest
// turn wins ties.
func findBestSpeaker(start, end float64, turns []Turn) string {
	maxOverlap := 0.0
	best := UnknownSpeaker

	for _, turn := range turns {
		overlap := min(end, turn.End) - max(start, turn.Start)
		if overlap > maxOverlap {
			maxOverlap = overlap
			best = turn.Label
		}
	}
	return best
}

// Labels returns the distinct speaker labels in first-seen order.
func Labels(segments []Segment) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, seg := range segments {
		if !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			labels = append(labels, seg.Speaker)
		}
	}
	return labels
}
