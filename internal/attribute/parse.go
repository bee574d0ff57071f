package attribute

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every SyntaxError.
var ErrSyntax = errors.New("attribute list syntax error")

var (
	reInteger = regexp.MustCompile(`^-?[0-9]+$`)
	reDecimal = regexp.MustCompile(`^-?([0-9]+\.[0-9]*|\.[0-9]+)$`)
)

// SyntaxError describes a malformed segment of an attribute list.
type SyntaxError struct {
	// Segment is the offending KEY=VALUE text.
	Segment string
	// Offset is the byte offset of Segment within the attribute list.
	Offset int
	// Reason is a short description of the problem.
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Reason, e.Offset, e.Segment)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// ParseList parses an attribute list such as
//
//	BANDWIDTH=500000,RESOLUTION=640x360,CODECS="avc1.4d401f,mp4a.40.2"
//
// Commas inside a quoted value do not separate attributes. Names are kept
// as declared; when a name repeats, the last occurrence wins.
func ParseList(s string) (List, error) {
	list := make(List)
	if strings.TrimSpace(s) == "" {
		return list, nil
	}

	start := 0
	inQuote := false
	for i := 0; i <= len(s); i++ {
		if i < len(s) {
			switch s[i] {
			case '"':
				inQuote = !inQuote
				continue
			case ',':
				if inQuote {
					continue
				}
			default:
				continue
			}
		} else if inQuote {
			return nil, &SyntaxError{Segment: s[start:], Offset: start, Reason: "unterminated quoted value"}
		}

		seg := s[start:i]
		// a single trailing comma is tolerated
		if i == len(s) && strings.TrimSpace(seg) == "" && start > 0 {
			break
		}
		key, val, err := parseSegment(seg, start)
		if err != nil {
			return nil, err
		}
		list[key] = val
		start = i + 1
	}

	return list, nil
}

func parseSegment(seg string, offset int) (string, Value, error) {
	eq := strings.IndexByte(seg, '=')
	if eq < 0 {
		return "", Value{}, &SyntaxError{Segment: seg, Offset: offset, Reason: "missing '='"}
	}

	key := strings.TrimSpace(seg[:eq])
	if key == "" {
		return "", Value{}, &SyntaxError{Segment: seg, Offset: offset, Reason: "empty attribute name"}
	}

	raw := strings.TrimSpace(seg[eq+1:])
	if strings.HasPrefix(raw, `"`) {
		if len(raw) < 2 || !strings.HasSuffix(raw, `"`) {
			return "", Value{}, &SyntaxError{Segment: seg, Offset: offset, Reason: "unexpected text after quoted value"}
		}
		return key, Value{kind: KindQuotedString, raw: raw, text: raw[1 : len(raw)-1]}, nil
	}

	return key, classify(raw), nil
}

// classify types an unquoted value: resolution, then hexadecimal sequence,
// integer and decimal, falling back to an enumerated token.
func classify(raw string) Value {
	if raw == "" {
		return textValue("")
	}

	if r, ok := matchResolution(raw); ok {
		return Value{kind: KindResolution, raw: raw, text: raw, res: r}
	}

	// hexadecimal sequences (IV=0x...) stay enumerated
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		return enumValue(raw)
	}

	if reInteger.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Value{kind: KindInteger, raw: raw, text: raw, i: i, f: float64(i)}
		}
	}

	if reInteger.MatchString(raw) || reDecimal.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return Value{kind: KindDecimal, raw: raw, text: raw, f: f}
		}
	}

	return enumValue(raw)
}
