// internal/subtitle/validate.go
package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

type timeSpan struct {
	start string
	end   string
}

// Validate checks the document for empty captions, inverted or
// overlapping time spans and duplicate start times. It returns one
// message per problem and marks the offending captions invalid. A clean
// run resets every caption to valid.
func (d *Document) Validate() []string {
	var errors []string
	seenSpans := make(map[timeSpan]bool)
	startTimes := make(map[string][]int)
	var startOrder []string

	for _, caption := range d.Captions {
		if strings.TrimSpace(caption.Text) == "" {
			errors = append(errors, fmt.Sprintf("Caption #%d has no text.", caption.Index))
		}

		span := timeSpan{caption.StartTime, caption.EndTime}
		if seenSpans[span] {
			errors = append(errors, fmt.Sprintf("Caption #%d overlaps with another caption.", caption.Index))
		}
		seenSpans[span] = true

		if _, ok := startTimes[caption.StartTime]; !ok {
			startOrder = append(startOrder, caption.StartTime)
		}
		startTimes[caption.StartTime] = append(startTimes[caption.StartTime], caption.Index)

		if caption.EndSeconds() < caption.StartSeconds() {
			caption.Valid = false
			errors = append(errors, fmt.Sprintf("Caption #%d has end time before start time.", caption.Index))
		}
	}

	for i := 0; i < len(d.Captions)-1; i++ {
		current := d.Captions[i]
		next := d.Captions[i+1]
		if current.EndSeconds() > next.StartSeconds() {
			current.Valid = false
			errors = append(errors, fmt.Sprintf("Caption #%d overlaps with caption #%d.",
				current.Index, next.Index))
		}
	}

	for _, start := range startOrder {
		indices := startTimes[start]
		if len(indices) < 2 {
			continue
		}
		labels := make([]string, len(indices))
		for i, index := range indices {
			labels[i] = strconv.Itoa(index)
		}
		errors = append(errors, fmt.Sprintf("Multiple captions start at the same time: %s.",
			strings.Join(labels, ", ")))

		for _, caption := range d.Captions {
			for _, index := range indices {
				if caption.Index == index {
					caption.Valid = false
				}
			}
		}
	}

	if len(errors) == 0 {
		for _, caption := range d.Captions {
			caption.Valid = true
		}
	}
	return errors
}
