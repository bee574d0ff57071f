package variant

// Playlist is a parsed master playlist. It owns all of its variants and
// renditions and is not modified after parsing, so it may be shared freely.
type Playlist struct {
	// Version is the EXT-X-VERSION value, 0 if absent
	Version int

	// IndependentSegments is set by EXT-X-INDEPENDENT-SEGMENTS
	IndependentSegments bool

	// Variants in document order
	Variants []*Variant

	// Renditions grouped by GROUP-ID, each group in document order
	Renditions map[string][]*Rendition
}

// New returns an empty playlist.
func New() *Playlist {
	return &Playlist{
		Renditions: make(map[string][]*Rendition),
	}
}

// Group returns the renditions declared under id. A group that was never
// declared yields nil.
func (p *Playlist) Group(id string) []*Rendition {
	return p.Renditions[id]
}

// AudioChannels returns the channel counts declared by the audio renditions
// of group id, in document order. Renditions without CHANNELS are skipped.
func (p *Playlist) AudioChannels(id string) []uint32 {
	var out []uint32
	for _, r := range p.Renditions[id] {
		if r.IsAudio() && r.HasChannels {
			out = append(out, r.Channels)
		}
	}
	return out
}

// Empty reports whether the playlist declares neither variants nor renditions.
func (p *Playlist) Empty() bool {
	return len(p.Variants) == 0 && len(p.Renditions) == 0
}

// RenditionCount returns the total number of renditions in all groups.
func (p *Playlist) RenditionCount() int {
	n := 0
	for _, g := range p.Renditions {
		n += len(g)
	}
	return n
}
