// Package parser builds the variant data model from the text of an HLS
// master playlist.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/variant"
)

// Tags recognized by the builder. Any other tag is ignored.
const (
	tagHeader              = "EXTM3U"
	tagVersion             = "EXT-X-VERSION"
	tagIndependentSegments = "EXT-X-INDEPENDENT-SEGMENTS"
	tagMedia               = "EXT-X-MEDIA"
	tagStreamInf           = "EXT-X-STREAM-INF"
	tagIFrameStreamInf     = "EXT-X-I-FRAME-STREAM-INF"
)

type state int

const (
	stateIdle state = iota
	stateAwaitingURI
)

// builder walks classified lines in document order.
type builder struct {
	playlist *variant.Playlist
	state    state
	pending  *variant.Variant
}

// Parse parses the complete text of a master playlist. The first error
// aborts the parse; the returned error is then an *Error.
func Parse(text string) (*variant.Playlist, error) {
	b := &builder{playlist: variant.New()}

	for l := range Lines(text) {
		if err := b.feed(l); err != nil {
			return nil, err
		}
	}

	if b.state == stateAwaitingURI {
		return nil, b.missingURI(fmt.Errorf("end of input"))
	}

	return b.playlist, nil
}

func (b *builder) feed(l Line) error {
	if b.state == stateAwaitingURI {
		switch l.Kind {
		case LineURI:
			b.pending.URI = l.Text
			b.playlist.Variants = append(b.playlist.Variants, b.pending)
			b.pending = nil
			b.state = stateIdle

		case LineTag:
			return b.missingURI(fmt.Errorf("found %s at line %d", l.Name, l.Number))
		}
		return nil
	}

	if l.Kind != LineTag {
		return nil
	}

	switch l.Name {
	case tagHeader:

	case tagVersion:
		// informational only; an unreadable version is skipped
		if v, err := strconv.Atoi(strings.TrimSpace(l.Value)); err == nil && v >= 0 {
			b.playlist.Version = v
		}

	case tagIndependentSegments:
		b.playlist.IndependentSegments = true

	case tagMedia:
		attrs, err := attributes(l)
		if err != nil {
			return err
		}
		r, err := newRendition(l, attrs)
		if err != nil {
			return err
		}
		b.playlist.Renditions[r.GroupID] = append(b.playlist.Renditions[r.GroupID], r)

	case tagStreamInf:
		attrs, err := attributes(l)
		if err != nil {
			return err
		}
		v, err := newVariant(l, attrs)
		if err != nil {
			return err
		}
		if uri, ok := attrs.Get("URI"); ok && uri.String() != "" {
			v.URI = uri.String()
			b.playlist.Variants = append(b.playlist.Variants, v)
			return nil
		}
		b.pending = v
		b.state = stateAwaitingURI

	case tagIFrameStreamInf:
		attrs, err := attributes(l)
		if err != nil {
			return err
		}
		v, err := newVariant(l, attrs)
		if err != nil {
			return err
		}
		uri, ok := attrs.Get("URI")
		if !ok || uri.String() == "" {
			return &Error{Line: l.Number, Tag: l.Name, Key: "URI", Err: ErrMissingURI}
		}
		v.URI = uri.String()
		v.IFrame = true
		b.playlist.Variants = append(b.playlist.Variants, v)
	}

	return nil
}

func (b *builder) missingURI(detail error) *Error {
	return &Error{
		Line:   b.pending.Line,
		Tag:    tagStreamInf,
		Err:    ErrMissingURI,
		detail: detail,
	}
}

func attributes(l Line) (attribute.List, error) {
	attrs, err := attribute.ParseList(l.Value)
	if err != nil {
		return nil, &Error{Line: l.Number, Tag: l.Name, Err: ErrAttributeSyntax, detail: err}
	}
	return attrs, nil
}

// newVariant reads the attributes shared by EXT-X-STREAM-INF and
// EXT-X-I-FRAME-STREAM-INF. The URI is filled in by the caller.
func newVariant(l Line, attrs attribute.List) (*variant.Variant, error) {
	v := &variant.Variant{
		Line:       l.Number,
		Attributes: attrs,
	}

	bw, ok := attrs.Get("BANDWIDTH")
	if !ok {
		return nil, invalidValue(l, "BANDWIDTH", "required attribute is absent")
	}
	n, err := nonNegative(bw)
	if err != nil {
		return nil, invalidValue(l, "BANDWIDTH", "%w", err)
	}
	v.Bandwidth = n

	if avg, ok := attrs.Get("AVERAGE-BANDWIDTH"); ok {
		n, err := nonNegative(avg)
		if err != nil {
			return nil, invalidValue(l, "AVERAGE-BANDWIDTH", "%w", err)
		}
		v.AverageBandwidth = n
	}

	if res, ok := attrs.Get("RESOLUTION"); ok {
		r, ok := res.Resolution()
		if !ok {
			return nil, invalidValue(l, "RESOLUTION", "%q is not WIDTHxHEIGHT", res.Raw())
		}
		v.Resolution = &r
	}

	if codecs, ok := attrs.Get("CODECS"); ok {
		v.Codecs = splitCodecs(codecs.String())
	}

	if audio, ok := attrs.Get("AUDIO"); ok {
		v.AudioGroup, v.HasAudioGroup = audio.String(), true
	} else if audio, ok := attrs.Get("AUDIO-GROUP"); ok {
		v.AudioGroup, v.HasAudioGroup = audio.String(), true
	}

	if fr, ok := attrs.Get("FRAME-RATE"); ok {
		f, ok := fr.Float64()
		if !ok || f < 0 {
			return nil, invalidValue(l, "FRAME-RATE", "%q is not a decimal number", fr.Raw())
		}
		v.FrameRate = f
	}

	if vr, ok := attrs.Get("VIDEO-RANGE"); ok {
		v.VideoRange = vr.String()
	}

	if cc, ok := attrs.Get("CLOSED-CAPTIONS"); ok {
		v.ClosedCaptions = cc.String()
	}

	return v, nil
}

func newRendition(l Line, attrs attribute.List) (*variant.Rendition, error) {
	r := &variant.Rendition{
		Line:       l.Number,
		Attributes: attrs,
	}

	gid, ok := attrs.Get("GROUP-ID")
	if !ok {
		return nil, invalidValue(l, "GROUP-ID", "required attribute is absent")
	}
	r.GroupID = gid.String()

	if t, ok := attrs.Get("TYPE"); ok {
		r.Type = t.String()
	}
	if name, ok := attrs.Get("NAME"); ok {
		r.Name = name.String()
	}
	if lang, ok := attrs.Get("LANGUAGE"); ok {
		r.Language = lang.String()
	}
	if uri, ok := attrs.Get("URI"); ok {
		r.URI = uri.String()
	}
	if d, ok := attrs.Get("DEFAULT"); ok {
		r.Default = d.String() == "YES"
	}
	if a, ok := attrs.Get("AUTOSELECT"); ok {
		r.AutoSelect = a.String() == "YES"
	}

	if ch, ok := attrs.Get("CHANNELS"); ok {
		n, err := leadingChannels(ch.String())
		if err != nil {
			return nil, invalidValue(l, "CHANNELS", "%w", err)
		}
		r.Channels, r.HasChannels = n, true
	}

	return r, nil
}

// nonNegative reads a decimal-integer attribute over the full uint64 range.
func nonNegative(v attribute.Value) (uint64, error) {
	if i, ok := v.Int64(); ok && i >= 0 {
		return uint64(i), nil
	}
	// values past the int64 range are classified as decimals
	if v.Kind() == attribute.KindDecimal {
		if n, err := strconv.ParseUint(v.Raw(), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%q is not a non-negative integer", v.Raw())
}

// leadingChannels extracts N from the CHANNELS forms "N" and "N/...".
func leadingChannels(s string) (uint32, error) {
	head, _, _ := strings.Cut(s, "/")
	n, err := strconv.ParseUint(strings.TrimSpace(head), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%q does not start with a channel count", s)
	}
	return uint32(n), nil
}

// splitCodecs turns a CODECS list into distinct, trimmed entries.
func splitCodecs(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range strings.Split(s, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
