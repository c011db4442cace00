package cloze

import (
	"regexp"
	"strings"
)

const (
	markerOpen  = "{{c1::"
	markerClose = "}}"
)

var (
	openMarkerPattern = regexp.MustCompile(`^\{\{c\d+::`)
	anyMarkerPattern  = regexp.MustCompile(`\{\{c\d+::`)
)

// MarkerPolicy decides which occurrences of a span are wrapped when the
// span text appears more than once in the target text.
type MarkerPolicy int

const (
	// ReplaceAll wraps every occurrence.
	ReplaceAll MarkerPolicy = iota
	// ReplaceFirst wraps only the leftmost occurrence.
	ReplaceFirst
)

func (p MarkerPolicy) String() string {
	switch p {
	case ReplaceFirst:
		return "first"
	default:
		return "all"
	}
}

// Apply wraps span inside text according to the policy. text is returned
// unchanged when span is empty or absent.
func (p MarkerPolicy) Apply(text, span string) string {
	return p.Substitute(text, span, Wrap(span))
}

// Substitute replaces old with replacement in text, once or everywhere
// depending on the policy.
func (p MarkerPolicy) Substitute(text, old, replacement string) string {
	if old == "" || !strings.Contains(text, old) {
		return text
	}

	n := -1
	if p == ReplaceFirst {
		n = 1
	}
	return strings.Replace(text, old, replacement, n)
}

// Wrap returns span as a deletion of group 1.
func Wrap(span string) string {
	return markerOpen + span + markerClose
}

// CountMarkers returns the number of deletion markers opened in text.
func CountMarkers(text string) int {
	return len(anyMarkerPattern.FindAllStringIndex(text, -1))
}

// StripMarkers removes every deletion marker, including nested ones,
// restoring the text the markers were inserted into.
func StripMarkers(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	depth := 0
	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], "{{c") {
			if loc := openMarkerPattern.FindStringIndex(text[i:]); loc != nil {
				depth++
				i += loc[1]
				continue
			}
		}
		if depth > 0 && strings.HasPrefix(text[i:], markerClose) {
			depth--
			i += len(markerClose)
			continue
		}
		b.WriteByte(text[i])
		i++
	}

	return b.String()
}
