package attribute

import (
	"fmt"
	"regexp"
	"strconv"
)

var reResolution = regexp.MustCompile(`^([0-9]+)x([0-9]+)$`)

// Resolution is a video resolution in pixels.
type Resolution struct {
	Width  uint32 `json:"width" yaml:"width"`
	Height uint32 `json:"height" yaml:"height"`
}

// String renders the resolution as WIDTHxHEIGHT.
func (r Resolution) String() string {
	return strconv.FormatUint(uint64(r.Width), 10) + "x" + strconv.FormatUint(uint64(r.Height), 10)
}

// ParseResolution parses a WIDTHxHEIGHT string such as "1920x1080".
func ParseResolution(s string) (Resolution, error) {
	r, ok := matchResolution(s)
	if !ok {
		return Resolution{}, fmt.Errorf("invalid resolution %q: expected WIDTHxHEIGHT", s)
	}
	return r, nil
}

func matchResolution(s string) (Resolution, bool) {
	m := reResolution.FindStringSubmatch(s)
	if m == nil {
		return Resolution{}, false
	}
	w, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return Resolution{}, false
	}
	h, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return Resolution{}, false
	}
	return Resolution{Width: uint32(w), Height: uint32(h)}, true
}
