// Package render writes selected variants as JSON, text or an HLS master
// playlist.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gookit/color"
	"github.com/grafov/m3u8"

	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/variant"
)

// Format is an output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatM3U8 Format = "m3u8"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatM3U8}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatM3U8:
		return "application/vnd.apple.mpegurl"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Write renders vs, which must come from pl, in format f. Color only
// applies to the text format.
func Write(w io.Writer, f Format, pl *variant.Playlist, vs []*variant.Variant, useColor bool) error {
	switch f {
	case FormatJSON:
		return JSON(w, pl, vs)
	case FormatM3U8:
		return M3U8(w, pl, vs)
	case FormatText:
		return Text(w, pl, vs, useColor)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// Record is the JSON form of a variant.
type Record struct {
	URI              string                `json:"uri"`
	Bandwidth        uint64                `json:"bandwidth"`
	AverageBandwidth uint64                `json:"averageBandwidth,omitempty"`
	Resolution       *attribute.Resolution `json:"resolution,omitempty"`
	Codecs           []string              `json:"codecs,omitempty"`
	AudioGroup       *string               `json:"audioGroup,omitempty"`
	AudioChannels    []uint32              `json:"audioChannels,omitempty"`
	FrameRate        float64               `json:"frameRate,omitempty"`
	VideoRange       string                `json:"videoRange,omitempty"`
	ClosedCaptions   string                `json:"closedCaptions,omitempty"`
	IFrame           bool                  `json:"iframe,omitempty"`
	Line             int                   `json:"line"`
}

// NewRecord builds the JSON form of v, resolving its audio channel counts
// against pl.
func NewRecord(pl *variant.Playlist, v *variant.Variant) Record {
	r := Record{
		URI:              v.URI,
		Bandwidth:        v.Bandwidth,
		AverageBandwidth: v.AverageBandwidth,
		Resolution:       v.Resolution,
		Codecs:           v.Codecs,
		FrameRate:        v.FrameRate,
		VideoRange:       v.VideoRange,
		ClosedCaptions:   v.ClosedCaptions,
		IFrame:           v.IFrame,
		Line:             v.Line,
	}
	if v.HasAudioGroup {
		group := v.AudioGroup
		r.AudioGroup = &group
		r.AudioChannels = pl.AudioChannels(group)
	}
	return r
}

// JSON writes vs as an indented JSON array.
func JSON(w io.Writer, pl *variant.Playlist, vs []*variant.Variant) error {
	records := make([]Record, 0, len(vs))
	for _, v := range vs {
		records = append(records, NewRecord(pl, v))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Text writes one aligned line per variant:
// bandwidth, resolution, audio group, codecs, URI.
func Text(w io.Writer, pl *variant.Playlist, vs []*variant.Variant, useColor bool) error {
	paint := func(c color.Color, s string) string {
		if !useColor {
			return s
		}
		return color.RenderString(c.Code(), s)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range vs {
		res := "-"
		if v.Resolution != nil {
			res = v.Resolution.String()
		}

		audio := "-"
		if v.HasAudioGroup {
			audio = v.AudioGroup
			if ch := pl.AudioChannels(v.AudioGroup); len(ch) > 0 {
				audio += "(" + joinUint32(ch) + "ch)"
			}
		}

		codecs := "-"
		if len(v.Codecs) > 0 {
			codecs = strings.Join(v.Codecs, ",")
		}

		uri := v.URI
		if v.IFrame {
			uri += " [iframe]"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			paint(color.Green, strconv.FormatUint(v.Bandwidth, 10)),
			res,
			paint(color.Yellow, audio),
			codecs,
			paint(color.Cyan, uri),
		)
	}
	return tw.Flush()
}

// M3U8 writes vs as a master playlist, together with the renditions of the
// audio, video and subtitle groups they reference.
func M3U8(w io.Writer, pl *variant.Playlist, vs []*variant.Variant) error {
	master := m3u8.NewMasterPlaylist()

	for _, v := range vs {
		params := m3u8.VariantParams{
			Bandwidth:        clampUint32(v.Bandwidth),
			AverageBandwidth: clampUint32(v.AverageBandwidth),
			Codecs:           strings.Join(v.Codecs, ","),
			FrameRate:        v.FrameRate,
			Captions:         v.ClosedCaptions,
			VideoRange:       v.VideoRange,
			Iframe:           v.IFrame,
		}
		if v.Resolution != nil {
			params.Resolution = v.Resolution.String()
		}
		if v.HasAudioGroup {
			params.Audio = v.AudioGroup
			params.Alternatives = append(params.Alternatives, alternatives(pl, "AUDIO", v.AudioGroup)...)
		}
		if id := groupRef(v, "VIDEO"); id != "" {
			params.Video = id
			params.Alternatives = append(params.Alternatives, alternatives(pl, "VIDEO", id)...)
		}
		if id := groupRef(v, "SUBTITLES"); id != "" {
			params.Subtitles = id
			params.Alternatives = append(params.Alternatives, alternatives(pl, "SUBTITLES", id)...)
		}
		master.Append(v.URI, nil, params)
	}

	if _, err := w.Write(master.Encode().Bytes()); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// groupRef returns the group id the variant names in attribute key.
func groupRef(v *variant.Variant, key string) string {
	if ref, ok := v.Attributes.Get(key); ok {
		return ref.String()
	}
	return ""
}

// alternatives returns the renditions of type typ declared under group id.
func alternatives(pl *variant.Playlist, typ, id string) []*m3u8.Alternative {
	var out []*m3u8.Alternative
	for _, r := range pl.Group(id) {
		if r.Type == typ {
			out = append(out, alternative(r))
		}
	}
	return out
}

func alternative(r *variant.Rendition) *m3u8.Alternative {
	alt := &m3u8.Alternative{
		GroupId:  r.GroupID,
		URI:      r.URI,
		Type:     r.Type,
		Language: r.Language,
		Name:     r.Name,
		Default:  r.Default,
	}
	if r.AutoSelect {
		alt.Autoselect = "YES"
	}
	return alt
}

// clampUint32 narrows bandwidths to the width the encoder supports.
func clampUint32(n uint64) uint32 {
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

func joinUint32(ns []uint32) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.FormatUint(uint64(n), 10)
	}
	return strings.Join(parts, "/")
}
