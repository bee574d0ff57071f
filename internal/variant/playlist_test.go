package variant

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudioChannels(t *testing.T) {
	p := New()
	p.Renditions["aac"] = []*Rendition{
		{Type: "AUDIO", GroupID: "aac", Channels: 2, HasChannels: true},
		{Type: "AUDIO", GroupID: "aac"},
		{Type: "AUDIO", GroupID: "aac", Channels: 6, HasChannels: true},
	}
	p.Renditions["subs"] = []*Rendition{
		{Type: "SUBTITLES", GroupID: "subs", Channels: 2, HasChannels: true},
	}

	require.Equal(t, []uint32{2, 6}, p.AudioChannels("aac"))
	require.Empty(t, p.AudioChannels("subs"))
	require.Nil(t, p.AudioChannels("missing"))
	require.Equal(t, 4, p.RenditionCount())
}

func TestEmpty(t *testing.T) {
	p := New()
	require.True(t, p.Empty())

	p.Variants = append(p.Variants, &Variant{Bandwidth: 1, URI: "a.m3u8"})
	require.False(t, p.Empty())
}
