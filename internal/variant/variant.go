// Package variant defines the data model of a parsed HLS master playlist:
// variant streams, media renditions and the playlist that owns them.
package variant

import "github.com/agleyzer/hlsselect/internal/attribute"

// Variant represents a single variant stream in an HLS master playlist.
// Each variant typically represents a different quality level (bitrate/resolution).
type Variant struct {
	// Bandwidth is the declared peak bitrate in bits per second
	Bandwidth uint64

	// AverageBandwidth is the declared average bitrate, 0 if not specified
	AverageBandwidth uint64

	// Resolution is the video resolution, nil if not specified
	Resolution *attribute.Resolution

	// Codecs lists the distinct codec identifiers in declaration order
	Codecs []string

	// AudioGroup is the GROUP-ID of the audio renditions this variant uses.
	// It is only meaningful when HasAudioGroup is set.
	AudioGroup    string
	HasAudioGroup bool

	// FrameRate is the maximum frame rate, 0 if not specified
	FrameRate float64

	// VideoRange is SDR, HLG or PQ, empty if not specified
	VideoRange string

	// ClosedCaptions is the CLOSED-CAPTIONS group id or NONE
	ClosedCaptions string

	// URI is the playable target: the line following EXT-X-STREAM-INF,
	// or the URI attribute of EXT-X-I-FRAME-STREAM-INF
	URI string

	// IFrame marks a trick-play variant declared by EXT-X-I-FRAME-STREAM-INF
	IFrame bool

	// Line is the 1-based manifest line of the defining tag
	Line int

	// Attributes holds every attribute of the defining tag as parsed
	Attributes attribute.List
}

// Rendition is an alternate track declared by EXT-X-MEDIA.
type Rendition struct {
	// Type is AUDIO, VIDEO, SUBTITLES or CLOSED-CAPTIONS
	Type string

	// GroupID links the rendition to the variants that reference it
	GroupID string

	Name     string
	Language string
	URI      string

	Default    bool
	AutoSelect bool

	// Channels is the leading integer of the CHANNELS attribute.
	// It is only meaningful when HasChannels is set.
	Channels    uint32
	HasChannels bool

	// Line is the 1-based manifest line of the EXT-X-MEDIA tag
	Line int

	// Attributes holds every attribute of the tag as parsed
	Attributes attribute.List
}

// IsAudio reports whether the rendition is an audio track.
func (r *Rendition) IsAudio() bool {
	return r.Type == "AUDIO"
}
