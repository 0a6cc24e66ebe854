// internal/subtitle/edit.go
package subtitle

import (
	"regexp"
	"strings"

	apperrors "scribe-api/internal/common/errors"
)

// Split divides the caption at position i into two. Single-line text is
// cut at the space nearest the middle, multi-line text at the middle
// line. The time span splits at its midpoint.
func (d *Document) Split(i int) error {
	if i < 0 || i >= len(d.Captions) {
		return apperrors.NewNotFoundError("caption")
	}
	caption := d.Captions[i]

	var firstPart, secondPart string
	textLines := strings.Split(caption.Text, "\n")
	if len(textLines) == 1 {
		text := caption.Text
		midPoint := len(text) / 2
		for midPoint > 0 && text[midPoint] != ' ' {
			midPoint--
		}
		if midPoint == 0 {
			midPoint = len(text) / 2
		}
		firstPart = strings.TrimSpace(text[:midPoint])
		secondPart = strings.TrimSpace(text[midPoint:])
	} else {
		midLine := len(textLines) / 2
		firstPart = strings.Join(textLines[:midLine], "\n")
		secondPart = strings.Join(textLines[midLine:], "\n")
	}

	startSeconds := caption.StartSeconds()
	endSeconds := caption.EndSeconds()
	midSeconds := (startSeconds + endSeconds) / 2

	caption.Text = firstPart
	caption.EndTime = SecondsToTimestamp(midSeconds)

	second := NewCaption(
		caption.Index+1,
		SecondsToTimestamp(midSeconds),
		SecondsToTimestamp(endSeconds),
		secondPart,
		"",
	)
	d.insertAt(i+1, second)
	d.Renumber()
	return nil
}

// InsertAfter adds a placeholder caption after position i. The new
// caption runs from the end of caption i to the start of the next one, or
// three seconds when i is last.
func (d *Document) InsertAfter(i int) error {
	if i < 0 || i >= len(d.Captions) {
		return apperrors.NewNotFoundError("caption")
	}
	caption := d.Captions[i]

	startSeconds := caption.EndSeconds()
	endSeconds := startSeconds + 3
	if i < len(d.Captions)-1 {
		endSeconds = d.Captions[i+1].StartSeconds()
	}

	fresh := NewCaption(
		caption.Index+1,
		SecondsToTimestamp(startSeconds),
		SecondsToTimestamp(endSeconds),
		"New caption text",
		"",
	)
	d.insertAt(i+1, fresh)
	d.Renumber()
	return nil
}

// Remove deletes the caption at position i. The last remaining caption
// cannot be removed.
func (d *Document) Remove(i int) error {
	if i < 0 || i >= len(d.Captions) {
		return apperrors.NewNotFoundError("caption")
	}
	if len(d.Captions) <= 1 {
		return apperrors.NewValidationError("cannot remove the only remaining caption", "")
	}
	d.Captions = append(d.Captions[:i], d.Captions[i+1:]...)
	d.Renumber()
	return nil
}

// MergeWithNext appends the next caption's text to caption i, takes over
// its end time and drops it.
func (d *Document) MergeWithNext(i int) error {
	if i < 0 || i >= len(d.Captions) {
		return apperrors.NewNotFoundError("caption")
	}
	if i == len(d.Captions)-1 {
		return apperrors.NewValidationError("no next caption to merge with", "")
	}

	caption := d.Captions[i]
	next := d.Captions[i+1]
	caption.Text += "\n" + next.Text
	caption.EndTime = next.EndTime

	d.Captions = append(d.Captions[:i+1], d.Captions[i+2:]...)
	d.Renumber()
	return nil
}

// MergeWithPrevious folds caption i into the one before it.
func (d *Document) MergeWithPrevious(i int) error {
	if i < 0 || i >= len(d.Captions) {
		return apperrors.NewNotFoundError("caption")
	}
	if i == 0 {
		return apperrors.NewValidationError("no previous caption to merge with", "")
	}

	caption := d.Captions[i]
	previous := d.Captions[i-1]
	previous.Text += "\n" + caption.Text
	previous.EndTime = caption.EndTime

	d.Captions = append(d.Captions[:i], d.Captions[i+1:]...)
	d.Renumber()
	return nil
}

// CaptionAtTime returns the first caption whose span covers the given
// playback position, or nil.
func (d *Document) CaptionAtTime(seconds float64) *Caption {
	for _, caption := range d.Captions {
		if caption.StartSeconds() <= seconds && seconds <= caption.EndSeconds() {
			return caption
		}
	}
	return nil
}

// Search returns the positions of captions matching the term. A blank
// term yields no results.
func (d *Document) Search(term string, caseSensitive bool) []int {
	if strings.TrimSpace(term) == "" {
		return nil
	}
	var results []int
	for i, caption := range d.Captions {
		if caption.MatchesSearch(term, caseSensitive) {
			results = append(results, i)
		}
	}
	return results
}

// ReplaceAll substitutes the term in every matching caption and returns
// how many captions changed. Case-insensitive replacement treats the term
// literally.
func (d *Document) ReplaceAll(term, replacement string, caseSensitive bool) int {
	if term == "" {
		return 0
	}
	count := 0
	for _, caption := range d.Captions {
		if d.replaceInCaption(caption, term, replacement, caseSensitive) {
			count++
		}
	}
	return count
}

// ReplaceIn substitutes the term in the caption at position i. It reports
// whether a replacement was made.
func (d *Document) ReplaceIn(i int, term, replacement string, caseSensitive bool) bool {
	if i < 0 || i >= len(d.Captions) || term == "" {
		return false
	}
	return d.replaceInCaption(d.Captions[i], term, replacement, caseSensitive)
}

func (d *Document) replaceInCaption(caption *Caption, term, replacement string, caseSensitive bool) bool {
	if !caption.MatchesSearch(term, caseSensitive) {
		return false
	}
	if caseSensitive {
		caption.Text = strings.ReplaceAll(caption.Text, term, replacement)
	} else {
		pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
		caption.Text = pattern.ReplaceAllLiteralString(caption.Text, replacement)
	}
	return true
}

func (d *Document) insertAt(i int, caption *Caption) {
	d.Captions = append(d.Captions, nil)
	copy(d.Captions[i+1:], d.Captions[i:])
	d.Captions[i] = caption
}
