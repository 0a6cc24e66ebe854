// internal/subtitle/caption.go
package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CharacterLimit is the guideline maximum line length for SRT captions.
const CharacterLimit = 42

// DefaultSpeaker labels segments with no speaker attribution.
const DefaultSpeaker = "UNKNOWN"

// Caption is one subtitle cue. Timestamps are kept in SRT form
// (HH:MM:SS,mmm) so round trips preserve the input exactly.
type Caption struct {
	Index     int
	StartTime string
	EndTime   string
	Text      string
	Speaker   string
	Valid     bool
}

// NewCaption builds a caption, falling back to the default speaker label
// when none is given.
func NewCaption(index int, startTime, endTime, text, speaker string) *Caption {
	if speaker == "" {
		speaker = DefaultSpeaker
	}
	return &Caption{
		Index:     index,
		StartTime: startTime,
		EndTime:   endTime,
		Text:      text,
		Speaker:   speaker,
		Valid:     true,
	}
}

// Copy returns an independent copy of the caption.
func (c *Caption) Copy() *Caption {
	dup := *c
	return &dup
}

// StartSeconds converts the start timestamp to seconds.
func (c *Caption) StartSeconds() float64 {
	return timestampToSeconds(c.StartTime)
}

// EndSeconds converts the end timestamp to seconds.
func (c *Caption) EndSeconds() float64 {
	return timestampToSeconds(c.EndTime)
}

// Duration returns the caption length in seconds.
func (c *Caption) Duration() float64 {
	return c.EndSeconds() - c.StartSeconds()
}

// SRTBlock renders the caption as one SRT block without a trailing blank
// line.
func (c *Caption) SRTBlock() string {
	return fmt.Sprintf("%d\n%s --> %s\n%s\n", c.Index, c.StartTime, c.EndTime, c.Text)
}

// MatchesSearch reports whether the caption text contains the term. An
// empty term never matches.
func (c *Caption) MatchesSearch(term string, caseSensitive bool) bool {
	if term == "" {
		return false
	}
	text := c.Text
	if !caseSensitive {
		text = strings.ToLower(text)
		term = strings.ToLower(term)
	}
	return strings.Contains(text, term)
}

// Segment is the JSON shape for a caption in transcript payloads.
type Segment struct {
	Speaker  string  `json:"speaker"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Segment returns the caption as a transcript segment.
func (c *Caption) Segment() Segment {
	start := c.StartSeconds()
	end := c.EndSeconds()
	return Segment{
		Speaker:  c.Speaker,
		Text:     c.Text,
		Start:    start,
		End:      end,
		Duration: end - start,
	}
}

// OverlongLines reports whether any line exceeds the character limit.
func (c *Caption) OverlongLines() bool {
	for _, line := range strings.Split(c.Text, "\n") {
		if len([]rune(line)) > CharacterLimit {
			return true
		}
	}
	return false
}

func timestampToSeconds(timestamp string) float64 {
	parts := strings.Split(strings.ReplaceAll(timestamp, ",", "."), ":")
	if len(parts) != 3 {
		return 0
	}
	hours, _ := strconv.ParseFloat(parts[0], 64)
	minutes, _ := strconv.ParseFloat(parts[1], 64)
	seconds, _ := strconv.ParseFloat(parts[2], 64)
	return hours*3600 + minutes*60 + seconds
}

// SecondsToTimestamp converts seconds to the SRT timestamp form
// HH:MM:SS,mmm.
func SecondsToTimestamp(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := math.Mod(seconds, 60)
	millis := int(math.Mod(secs, 1) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, int(secs), millis)
}

// FormatTimestamp converts an SRT timestamp to one of the presets
// HH:MM:SS, HH:MM:SS,mmm or HH:MM:SS.mmm. Unknown presets and malformed
// timestamps are returned unchanged.
func FormatTimestamp(timestamp, preset string) string {
	normalized := strings.ReplaceAll(timestamp, ",", ".")
	normalized = strings.ReplaceAll(normalized, ".", ":")
	parts := strings.Split(normalized, ":")

	var hours, minutes, seconds, millis string
	switch len(parts) {
	case 4:
		hours, minutes, seconds, millis = parts[0], parts[1], parts[2], parts[3]
	case 3:
		hours, minutes, seconds, millis = parts[0], parts[1], parts[2], "000"
	default:
		return timestamp
	}

	switch preset {
	case "HH:MM:SS":
		return fmt.Sprintf("%s:%s:%s", hours, minutes, seconds)
	case "HH:MM:SS,mmm":
		return fmt.Sprintf("%s:%s:%s,%s", hours, minutes, seconds, millis)
	case "HH:MM:SS.mmm":
		return fmt.Sprintf("%s:%s:%s.%s", hours, minutes, seconds, millis)
	}
	return timestamp
}
