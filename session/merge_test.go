package session

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.99, "00:00:59"},
		{61, "00:01:01"},
		{3661.9, "01:01:01"},
		{90061, "25:01:01"},
		{-3, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTimestamp(tt.seconds), "seconds=%v", tt.seconds)
	}
}

func TestMerge_SortedByStart(t *testing.T) {
	self := []Segment{{Start: 5, End: 6, Speaker: "Me", Text: "c"}, {Start: 1, End: 2, Speaker: "Me", Text: "a"}}
	others := []Segment{{Start: 3, End: 4, Speaker: "Bob", Text: "b"}}

	merged := Merge(self, others)
	require.Len(t, merged, 3)
	for i := 1; i < len(merged); i++ {
		assert.LessOrEqual(t, merged[i-1].Start, merged[i].Start)
	}
	assert.Equal(t, []string{"a", "b", "c"}, []string{merged[0].Text, merged[1].Text, merged[2].Text})
}

func TestMerge_StableOnEqualStart(t *testing.T) {
	self := []Segment{{Start: 2, End: 3, Speaker: "Me", Text: "self-1"}, {Start: 2, End: 4, Speaker: "Me", Text: "self-2"}}
	others := []Segment{{Start: 2, End: 3, Speaker: "SPEAKER_00", Text: "other-1"}}

	merged := Merge(self, others)
	assert.Equal(t, "self-1", merged[0].Text)
	assert.Equal(t, "self-2", merged[1].Text)
	assert.Equal(t, "other-1", merged[2].Text)
}

func TestMerge_DoesNotAliasInputs(t *testing.T) {
	self := []Segment{{Start: 9, Text: "late"}}
	others := []Segment{{Start: 1, Text: "early"}}
	Merge(self, others)
	assert.Equal(t, "late", self[0].Text)
}

func TestRender_DropsBlankText(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 1, Speaker: "Me", Text: "  hello  "},
		{Start: 1, End: 2, Speaker: "Bob", Text: "   "},
		{Start: 2, End: 3, Speaker: "Bob", Text: ""},
		{Start: 3, End: 4, Speaker: "Bob", Text: "\tbye\n"},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, segments))
	assert.Equal(t, "[00:00:00] Me: hello\n[00:00:03] Bob: bye\n", buf.String())
}

func TestRender_SelfAndOthersScenario(t *testing.T) {
	self := []Segment{{Start: 0, End: 2, Speaker: "Me", Text: "hi"}}
	others := []Segment{{Start: 1, End: 3, Speaker: "SPEAKER_00", Text: "there"}}

	assert.Equal(t, []string{
		"[00:00:00] Me: hi",
		"[00:00:01] SPEAKER_00: there",
	}, Lines(Merge(self, others)))
}

func TestLines_Empty(t *testing.T) {
	assert.Nil(t, Lines(nil))
	assert.Nil(t, Lines([]Segment{{Text: " "}}))
}
