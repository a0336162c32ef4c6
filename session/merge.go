package session

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Merge concatenates self then others and sorts by start time. The sort is
// stable, so on equal starts self segments stay ahead of others.
func Merge(self, others []Segment) []Segment {
	merged := make([]Segment, 0, len(self)+len(others))
	merged = append(merged, self...)
	merged = append(merged, others...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start < merged[j].Start
	})
	return merged
}

// Render writes one "[HH:MM:SS] Speaker: text" line per segment.
// Segments whose text is blank after trimming are dropped.
func Render(w io.Writer, segments []Segment) error {
	bw := bufio.NewWriter(w)
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if _, err := fmt.Fprintf(bw, "[%s] %s: %s\n", FormatTimestamp(seg.Start), seg.Speaker, text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Lines returns the rendered transcript as a slice.
func Lines(segments []Segment) []string {
	var sb strings.Builder
	_ = Render(&sb, segments)
	out := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}

// FormatTimestamp truncates seconds to an integer and formats HH:MM:SS.
// Hours are not wrapped at 24.
func FormatTimestamp(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
