// Package render splits assistant text into alternating prose and code
// segments for display. The scan is pure and stateless across calls.
package render

import (
	"regexp"
	"strings"
)

const defaultLanguage = "lua"

type SegmentType string

const (
	SegmentText SegmentType = "text"
	SegmentCode SegmentType = "code"
)

type Segment struct {
	Type     SegmentType `json:"type"`
	Language string      `json:"language,omitempty"`
	Content  string      `json:"content"`
}

var fenceRegex = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")

// Segments scans text for fenced code blocks and returns the ordered
// prose/code sequence. Text with no fences comes back as a single text
// segment; empty runs between adjacent fences are dropped.
func Segments(text string) []Segment {
	matches := fenceRegex.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Type: SegmentText, Content: text}}
	}

	segments := []Segment{}
	lastEnd := 0

	for _, m := range matches {
		start, end := m[0], m[1]

		if start > lastEnd {
			segments = append(segments, Segment{
				Type:    SegmentText,
				Content: text[lastEnd:start],
			})
		}

		language := defaultLanguage
		if m[2] >= 0 {
			language = text[m[2]:m[3]]
		}

		segments = append(segments, Segment{
			Type:     SegmentCode,
			Language: language,
			Content:  strings.TrimSpace(text[m[4]:m[5]]),
		})

		lastEnd = end
	}

	if lastEnd < len(text) {
		segments = append(segments, Segment{
			Type:    SegmentText,
			Content: text[lastEnd:],
		})
	}

	return segments
}
