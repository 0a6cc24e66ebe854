// internal/subtitle/export.go
package subtitle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportConfig controls how speakers and timestamps appear in exports. A
// nil config selects the legacy fixed layout of each format.
type ExportConfig struct {
	IncludeSpeaker     bool   `json:"include_speaker"`
	SpeakerPlacement   string `json:"speaker_placement"`   // "inline" or "separate"
	IncludeTimestamps  bool   `json:"include_timestamps"`
	TimestampPlacement string `json:"timestamp_placement"` // "beginning", "end" or "inline"
	TimestampType      string `json:"timestamp_type"`      // "start" or "range"
	TimestampFormat    string `json:"timestamp_format"`    // "HH:MM:SS", "HH:MM:SS,mmm" or "HH:MM:SS.mmm"
}

// DefaultExportConfig returns the configuration the export dialog starts
// from.
func DefaultExportConfig() *ExportConfig {
	return &ExportConfig{
		IncludeSpeaker:     true,
		SpeakerPlacement:   "inline",
		IncludeTimestamps:  true,
		TimestampPlacement: "beginning",
		TimestampType:      "range",
		TimestampFormat:    "HH:MM:SS,mmm",
	}
}

func (cfg *ExportConfig) timestamp(c *Caption) string {
	start := FormatTimestamp(c.StartTime, cfg.TimestampFormat)
	if cfg.TimestampType == "range" {
		end := FormatTimestamp(c.EndTime, cfg.TimestampFormat)
		return fmt.Sprintf("%s - %s", start, end)
	}
	return start
}

// ExportSRT renders the document as SRT.
func (d *Document) ExportSRT() string {
	blocks := make([]string, len(d.Captions))
	for i, caption := range d.Captions {
		blocks[i] = caption.SRTBlock()
	}
	return strings.Join(blocks, "\n\n")
}

// ExportVTT renders the document as WebVTT. SRT comma separators become
// dots.
func (d *Document) ExportVTT() string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, caption := range d.Captions {
		fmt.Fprintf(&b, "%d\n", caption.Index)
		fmt.Fprintf(&b, "%s --> %s\n",
			strings.ReplaceAll(caption.StartTime, ",", "."),
			strings.ReplaceAll(caption.EndTime, ",", "."))
		fmt.Fprintf(&b, "%s\n\n", caption.Text)
	}
	return b.String()
}

// ExportTXT renders the document as plain text.
func (d *Document) ExportTXT(cfg *ExportConfig) string {
	if cfg == nil {
		blocks := make([]string, len(d.Captions))
		for i, caption := range d.Captions {
			blocks[i] = fmt.Sprintf("%s: %s - %s\n%s",
				caption.Speaker, caption.StartTime, caption.EndTime, caption.Text)
		}
		return strings.TrimSpace(strings.Join(blocks, "\n\n"))
	}

	var lines []string
	for _, caption := range d.Captions {
		var header []string
		if cfg.IncludeSpeaker {
			header = append(header, caption.Speaker+":")
		}
		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "beginning" {
			header = append(header, cfg.timestamp(caption))
		}
		if len(header) > 0 {
			lines = append(lines, strings.Join(header, " "))
		}

		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "inline" {
			lines = append(lines, fmt.Sprintf("%s %s", cfg.timestamp(caption), caption.Text))
		} else {
			lines = append(lines, caption.Text)
		}

		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "end" {
			lines = append(lines, cfg.timestamp(caption))
		}

		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ExportCSV renders the document as CSV with double-quoted fields.
func (d *Document) ExportCSV(cfg *ExportConfig) string {
	var b strings.Builder
	for _, caption := range d.Captions {
		if cfg == nil {
			escaped := strings.ReplaceAll(caption.Text, `"`, `""`)
			fmt.Fprintf(&b, "\"%s\",\"%s\",\"%s\",\"%s\"\n",
				caption.StartTime, caption.EndTime, caption.Speaker, escaped)
			continue
		}

		var row []string
		if cfg.IncludeTimestamps && cfg.SpeakerPlacement == "separate" {
			row = append(row, `"`+FormatTimestamp(caption.StartTime, cfg.TimestampFormat)+`"`)
			if cfg.TimestampType == "range" {
				row = append(row, `"`+FormatTimestamp(caption.EndTime, cfg.TimestampFormat)+`"`)
			}
		}
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "separate" {
			row = append(row, `"`+caption.Speaker+`"`)
		}

		text := caption.Text
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "inline" {
			text = fmt.Sprintf("%s: %s", caption.Speaker, text)
		}
		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "inline" {
			text = fmt.Sprintf("%s %s", cfg.timestamp(caption), text)
		}
		row = append(row, `"`+strings.ReplaceAll(text, `"`, `""`)+`"`)

		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ExportTSV renders the document as tab-separated values. Tabs in caption
// text become spaces and newlines collapse to single spaces.
func (d *Document) ExportTSV(cfg *ExportConfig) string {
	var b strings.Builder
	for _, caption := range d.Captions {
		flattened := strings.ReplaceAll(caption.Text, "\t", "    ")
		flattened = strings.ReplaceAll(flattened, "\n", " ")

		if cfg == nil {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%s\n",
				caption.StartTime, caption.EndTime, caption.Speaker, flattened)
			continue
		}

		var row []string
		if cfg.IncludeTimestamps && cfg.SpeakerPlacement == "separate" {
			row = append(row, FormatTimestamp(caption.StartTime, cfg.TimestampFormat))
			if cfg.TimestampType == "range" {
				row = append(row, FormatTimestamp(caption.EndTime, cfg.TimestampFormat))
			}
		}
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "separate" {
			row = append(row, caption.Speaker)
		}

		text := flattened
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "inline" {
			text = fmt.Sprintf("%s: %s", caption.Speaker, text)
		}
		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "inline" {
			text = fmt.Sprintf("%s %s", cfg.timestamp(caption), text)
		}
		row = append(row, text)

		b.WriteString(strings.Join(row, "\t"))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ExportRTF renders the document as RTF. Non-ASCII runes use signed
// 16-bit \uN? escapes so the output stays 7-bit clean.
func (d *Document) ExportRTF(cfg *ExportConfig) string {
	var b strings.Builder
	b.WriteString(`{\rtf1\ansi\deff0{\fonttbl{\f0 Arial;}}\viewkind4\uc1\pard\f0\fs20 `)

	for _, caption := range d.Captions {
		if cfg == nil {
			b.WriteString(`\b `)
			b.WriteString(rtfEscape(caption.Speaker + ": "))
			b.WriteString(`\b0 `)
			b.WriteString(rtfEscape(fmt.Sprintf("%s - %s", caption.StartTime, caption.EndTime)))
			b.WriteString(`\line `)
			b.WriteString(strings.ReplaceAll(rtfEscape(caption.Text), "\n", `\line `))
			b.WriteString(`\line\line `)
			continue
		}

		var header []string
		if cfg.IncludeSpeaker {
			header = append(header, `\b `+rtfEscape(caption.Speaker+":")+`\b0 `)
		}
		if cfg.IncludeTimestamps {
			header = append(header, rtfEscape(cfg.timestamp(caption)))
		}
		if len(header) > 0 {
			b.WriteString(strings.Join(header, " "))
			b.WriteString(`\line `)
		}

		b.WriteString(strings.ReplaceAll(rtfEscape(caption.Text), "\n", `\line `))
		b.WriteString(`\line\line `)
	}

	b.WriteString("}")
	return strings.TrimSpace(b.String())
}

func rtfEscape(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r < 128:
			if r == '\\' || r == '{' || r == '}' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			code := int(r)
			if code > 0x7FFF {
				code -= 0x10000
			}
			fmt.Fprintf(&b, `\u%d?`, code)
		}
	}
	return b.String()
}

type jsonExport struct {
	Segments          []interface{} `json:"segments"`
	SpeakerCount      int           `json:"speaker_count"`
	FullTranscription string        `json:"full_transcription"`
}

// ExportJSON renders the document as a transcript payload. The legacy
// shape round-trips through ParseSegments.
func (d *Document) ExportJSON(cfg *ExportConfig) ([]byte, error) {
	segments := make([]interface{}, 0, len(d.Captions))

	for _, caption := range d.Captions {
		if cfg == nil {
			segments = append(segments, caption.Segment())
			continue
		}

		segment := make(map[string]interface{})
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "separate" {
			segment["speaker"] = caption.Speaker
		}

		text := caption.Text
		if cfg.IncludeSpeaker && cfg.SpeakerPlacement == "inline" {
			text = fmt.Sprintf("%s: %s", caption.Speaker, text)
		}
		if cfg.IncludeTimestamps && cfg.TimestampPlacement == "inline" {
			text = fmt.Sprintf("%s %s", cfg.timestamp(caption), text)
		}
		segment["text"] = text

		if cfg.IncludeTimestamps && cfg.SpeakerPlacement == "separate" {
			segment["timestamp"] = cfg.timestamp(caption)
		}

		segments = append(segments, segment)
	}

	return json.Marshal(jsonExport{
		Segments:          segments,
		SpeakerCount:      d.SpeakerCount(),
		FullTranscription: d.FullText(),
	})
}
