package parser

import (
	"iter"
	"strings"
)

// LineKind classifies a manifest line.
type LineKind int

// Line kinds.
const (
	LineBlank LineKind = iota
	LineComment
	LineTag
	LineURI
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineTag:
		return "tag"
	case LineURI:
		return "uri"
	default:
		return "unknown"
	}
}

// Line is one classified manifest line.
type Line struct {
	// Number is the 1-based line number
	Number int
	Kind   LineKind

	// Text is the line with surrounding whitespace and terminators removed
	Text string

	// Name is the tag name without '#', for Tag lines
	Name string
	// Value is the text after the first ':' of a Tag line
	Value string
	// HasValue reports whether the tag had a ':' at all
	HasValue bool
}

// Lines returns the classified lines of a manifest. The sequence is lazy
// and may be ranged over any number of times.
func Lines(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		rest := text
		for n := 1; rest != ""; n++ {
			var raw string
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				raw, rest = rest[:i], rest[i+1:]
			} else {
				raw, rest = rest, ""
			}
			if !yield(Classify(n, raw)) {
				return
			}
		}
	}
}

// Classify classifies a single raw line.
func Classify(number int, raw string) Line {
	text := strings.TrimSpace(strings.TrimRight(raw, "\r\n"))
	l := Line{Number: number, Text: text}

	switch {
	case text == "":
		l.Kind = LineBlank

	case strings.HasPrefix(text, "#EXT"):
		l.Kind = LineTag
		l.Name, l.Value, l.HasValue = strings.Cut(text[1:], ":")

	case strings.HasPrefix(text, "#"):
		l.Kind = LineComment

	default:
		l.Kind = LineURI
	}

	return l
}
