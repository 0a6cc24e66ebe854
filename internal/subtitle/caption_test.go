// internal/subtitle/caption_test.go
package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCaptionDefaultsSpeaker(t *testing.T) {
	caption := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello world", "")
	assert.Equal(t, "UNKNOWN", caption.Speaker)

	named := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello world", "SPEAKER_00")
	assert.Equal(t, "SPEAKER_00", named.Speaker)
}

func TestCaptionCopyIsIndependent(t *testing.T) {
	caption := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello world", "SPEAKER_00")
	dup := caption.Copy()

	dup.Text = "Changed"
	dup.Speaker = "SPEAKER_01"

	assert.Equal(t, "Hello world", caption.Text)
	assert.Equal(t, "SPEAKER_00", caption.Speaker)
	assert.Equal(t, caption.StartTime, dup.StartTime)
}

func TestCaptionSeconds(t *testing.T) {
	tests := []struct {
		name      string
		timestamp string
		want      float64
	}{
		{"zero", "00:00:00,000", 0},
		{"seconds and millis", "00:00:10,500", 10.5},
		{"minutes", "00:01:30,000", 90},
		{"hours", "01:02:03,250", 3723.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caption := NewCaption(1, tt.timestamp, tt.timestamp, "x", "")
			assert.InDelta(t, tt.want, caption.StartSeconds(), 0.0001)
			assert.InDelta(t, tt.want, caption.EndSeconds(), 0.0001)
		})
	}
}

func TestCaptionSegment(t *testing.T) {
	caption := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello world", "SPEAKER_00")
	segment := caption.Segment()

	assert.Equal(t, "SPEAKER_00", segment.Speaker)
	assert.Equal(t, "Hello world", segment.Text)
	assert.InDelta(t, 10.0, segment.Start, 0.0001)
	assert.InDelta(t, 15.5, segment.End, 0.0001)
	assert.InDelta(t, 5.5, segment.Duration, 0.0001)
}

func TestCaptionSRTBlock(t *testing.T) {
	caption := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello world", "")
	assert.Equal(t, "1\n00:00:10,000 --> 00:00:15,500\nHello world\n", caption.SRTBlock())
}

func TestCaptionMatchesSearch(t *testing.T) {
	caption := NewCaption(1, "00:00:10,000", "00:00:15,500", "Hello World", "")

	assert.True(t, caption.MatchesSearch("hello", false))
	assert.True(t, caption.MatchesSearch("World", true))
	assert.False(t, caption.MatchesSearch("hello", true))
	assert.False(t, caption.MatchesSearch("absent", false))
	assert.False(t, caption.MatchesSearch("", false))
}

func TestCaptionOverlongLines(t *testing.T) {
	short := NewCaption(1, "00:00:00,000", "00:00:01,000", "fits fine", "")
	assert.False(t, short.OverlongLines())

	long := NewCaption(2, "00:00:01,000", "00:00:02,000",
		"this single line of caption text runs well past the limit", "")
	assert.True(t, long.OverlongLines())

	mixed := NewCaption(3, "00:00:02,000", "00:00:03,000",
		"ok line\nthis second line of caption text runs well past the limit", "")
	assert.True(t, mixed.OverlongLines())
}

func TestSecondsToTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00:00,000"},
		{"millis", 10.5, "00:00:10,500"},
		{"minutes", 90, "00:01:30,000"},
		{"hours", 3723.25, "01:02:03,250"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecondsToTimestamp(tt.seconds))
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	caption := NewCaption(1, "01:02:03,250", "01:02:04,750", "x", "")
	require.Equal(t, "01:02:03,250", SecondsToTimestamp(caption.StartSeconds()))
	require.Equal(t, "01:02:04,750", SecondsToTimestamp(caption.EndSeconds()))
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		preset string
		want   string
	}{
		{"strip millis", "00:01:30,500", "HH:MM:SS", "00:01:30"},
		{"comma form", "00:01:30,500", "HH:MM:SS,mmm", "00:01:30,500"},
		{"dot form", "00:01:30,500", "HH:MM:SS.mmm", "00:01:30.500"},
		{"no millis input", "00:01:30", "HH:MM:SS,mmm", "00:01:30,000"},
		{"unknown preset", "00:01:30,500", "bogus", "00:01:30,500"},
		{"malformed", "not-a-time", "HH:MM:SS", "not-a-time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.input, tt.preset))
		})
	}
}
