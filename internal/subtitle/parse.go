// internal/subtitle/parse.go
package subtitle

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Format identifies the source material of a document. SRT documents come
// from subtitle output, TXT documents from diarized transcript segments.
const (
	FormatSRT = "SRT"
	FormatTXT = "TXT"
)

var blockSeparator = regexp.MustCompile(`\n\s*\n`)

// Document is an editable transcript: an ordered list of captions plus the
// speakers seen while parsing.
type Document struct {
	Format   string
	Captions []*Caption

	speakers map[string]struct{}
}

// NewDocument returns an empty document of the given format.
func NewDocument(format string) *Document {
	return &Document{
		Format:   format,
		speakers: make(map[string]struct{}),
	}
}

// ParseSRT parses SRT content into a document. Malformed blocks are
// skipped and the surviving captions renumbered.
func ParseSRT(content string) *Document {
	doc := NewDocument(FormatSRT)

	for _, block := range blockSeparator.Split(strings.TrimSpace(content), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}

		timestampLine := lines[1]
		if !strings.Contains(timestampLine, " --> ") {
			continue
		}
		times := strings.SplitN(timestampLine, " --> ", 2)

		textLines := make([]string, 0, len(lines)-2)
		for _, line := range lines[2:] {
			textLines = append(textLines, strings.TrimLeft(line, " \t"))
		}

		doc.Captions = append(doc.Captions, NewCaption(
			index,
			strings.TrimSpace(times[0]),
			strings.TrimSpace(times[1]),
			strings.Join(textLines, "\n"),
			"",
		))
	}

	doc.Renumber()
	return doc
}

type transcriptPayload struct {
	Segments []Segment `json:"segments"`
}

// ParseSegments parses a diarized transcript payload into a document.
// Consecutive segments from the same speaker are merged into one caption.
func ParseSegments(data []byte) (*Document, error) {
	doc := NewDocument(FormatTXT)

	var payload transcriptPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if len(payload.Segments) == 0 {
		return doc, nil
	}

	merged := make([]Segment, 0, len(payload.Segments))
	current := payload.Segments[0]
	for _, segment := range payload.Segments[1:] {
		if segment.Speaker == current.Speaker {
			current.Text += " " + segment.Text
			current.End = segment.End
			current.Duration = current.End - current.Start
		} else {
			merged = append(merged, current)
			current = segment
		}
	}
	merged = append(merged, current)

	for index, segment := range merged {
		if strings.TrimSpace(segment.Text) == "" {
			continue
		}
		doc.Captions = append(doc.Captions, NewCaption(
			index,
			SecondsToTimestamp(segment.Start),
			SecondsToTimestamp(segment.End),
			segment.Text,
			segment.Speaker,
		))
		doc.speakers[segment.Speaker] = struct{}{}
	}

	return doc, nil
}

// Renumber assigns sequential indexes starting at 1.
func (d *Document) Renumber() {
	for i, caption := range d.Captions {
		caption.Index = i + 1
	}
}

// SpeakerCount returns the number of distinct speakers seen.
func (d *Document) SpeakerCount() int {
	return len(d.speakers)
}

// SetSpeaker assigns a speaker to the caption at position i and records it
// in the speaker set.
func (d *Document) SetSpeaker(i int, speaker string) {
	if i < 0 || i >= len(d.Captions) || speaker == "" {
		return
	}
	d.Captions[i].Speaker = speaker
	if d.speakers == nil {
		d.speakers = make(map[string]struct{})
	}
	d.speakers[speaker] = struct{}{}
}

// FullText joins all caption texts with single spaces.
func (d *Document) FullText() string {
	parts := make([]string, len(d.Captions))
	for i, caption := range d.Captions {
		parts[i] = caption.Text
	}
	return strings.Join(parts, " ")
}

// WordsPerMinute is the average speaking rate over all captions.
func (d *Document) WordsPerMinute() float64 {
	var totalWords int
	var totalSeconds float64
	for _, caption := range d.Captions {
		totalWords += len(strings.Fields(caption.Text))
		totalSeconds += caption.Duration()
	}
	if totalSeconds == 0 {
		return 0
	}
	return float64(totalWords) / totalSeconds * 60
}
