package server

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/selector"
)

type query struct {
	options selector.Options
	best    bool
}

// parseQuery overlays the selection parameters present in v on defaults.
// A flag parameter given without a value (?sort-by-bandwidth) means true.
func parseQuery(v url.Values, defaults selector.Options) (query, error) {
	q := query{options: defaults}

	if v.Has("audio-group") {
		g := v.Get("audio-group")
		q.options.AudioGroup = &g
	}

	if v.Has("audio-channels") {
		n, err := strconv.ParseUint(v.Get("audio-channels"), 10, 32)
		if err != nil {
			return query{}, fmt.Errorf("invalid audio-channels %q", v.Get("audio-channels"))
		}
		ch := uint32(n)
		q.options.AudioChannels = &ch
	}

	if v.Has("max-bandwidth") {
		n, err := strconv.ParseUint(v.Get("max-bandwidth"), 10, 64)
		if err != nil {
			return query{}, fmt.Errorf("invalid max-bandwidth %q", v.Get("max-bandwidth"))
		}
		q.options.MaxBandwidth = &n
	}

	if v.Has("resolution") {
		r, err := attribute.ParseResolution(v.Get("resolution"))
		if err != nil {
			return query{}, err
		}
		q.options.Resolution = &r
	}

	var err error
	if q.options.SortByBandwidth, err = flag(v, "sort-by-bandwidth", q.options.SortByBandwidth); err != nil {
		return query{}, err
	}
	if q.options.ExcludeIFrames, err = flag(v, "exclude-iframes", q.options.ExcludeIFrames); err != nil {
		return query{}, err
	}
	if q.best, err = flag(v, "best", false); err != nil {
		return query{}, err
	}

	return q, nil
}

func flag(v url.Values, key string, def bool) (bool, error) {
	if !v.Has(key) {
		return def, nil
	}
	s := v.Get(key)
	if s == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, s)
	}
	return b, nil
}
