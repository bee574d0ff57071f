// Package selector filters and orders the variants of a parsed playlist
// according to player constraints.
package selector

import (
	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/variant"
)

// Options holds the optional constraints. A nil field imposes no constraint.
type Options struct {
	// AudioGroup must equal the variant's audio group exactly
	AudioGroup *string

	// AudioChannels must equal the channel count of some AUDIO rendition
	// in the variant's audio group
	AudioChannels *uint32

	// MaxBandwidth is an inclusive upper bound on the declared bandwidth
	MaxBandwidth *uint64

	// Resolution must equal the variant's resolution exactly
	Resolution *attribute.Resolution

	// ExcludeIFrames drops I-frame variants
	ExcludeIFrames bool

	// SortByBandwidth orders the result by descending bandwidth
	SortByBandwidth bool
}

// Predicate decides whether a variant is kept.
type Predicate func(v *variant.Variant) bool

// All combines predicates with logical AND. With no predicates every
// variant is kept.
func All(preds ...Predicate) Predicate {
	return func(v *variant.Variant) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// AudioGroup keeps variants whose audio group is exactly group. A variant
// without an audio group only matches the empty group.
func AudioGroup(group string) Predicate {
	return func(v *variant.Variant) bool {
		if !v.HasAudioGroup {
			return group == ""
		}
		return v.AudioGroup == group
	}
}

// AudioChannels keeps variants whose audio group, looked up in pl, holds an
// AUDIO rendition with exactly n channels. Variants whose group is absent
// or carries no channel information never match.
func AudioChannels(pl *variant.Playlist, n uint32) Predicate {
	return func(v *variant.Variant) bool {
		if !v.HasAudioGroup {
			return false
		}
		for _, ch := range pl.AudioChannels(v.AudioGroup) {
			if ch == n {
				return true
			}
		}
		return false
	}
}

// MaxBandwidth keeps variants with bandwidth <= limit.
func MaxBandwidth(limit uint64) Predicate {
	return func(v *variant.Variant) bool {
		return v.Bandwidth <= limit
	}
}

// Resolution keeps variants with exactly the given resolution.
func Resolution(r attribute.Resolution) Predicate {
	return func(v *variant.Variant) bool {
		return v.Resolution != nil && *v.Resolution == r
	}
}

// NotIFrame drops I-frame variants.
func NotIFrame() Predicate {
	return func(v *variant.Variant) bool {
		return !v.IFrame
	}
}

// Predicate builds the conjunction of the constraints set in o.
func (o Options) Predicate(pl *variant.Playlist) Predicate {
	var preds []Predicate
	if o.AudioGroup != nil {
		preds = append(preds, AudioGroup(*o.AudioGroup))
	}
	if o.AudioChannels != nil {
		preds = append(preds, AudioChannels(pl, *o.AudioChannels))
	}
	if o.MaxBandwidth != nil {
		preds = append(preds, MaxBandwidth(*o.MaxBandwidth))
	}
	if o.Resolution != nil {
		preds = append(preds, Resolution(*o.Resolution))
	}
	if o.ExcludeIFrames {
		preds = append(preds, NotIFrame())
	}
	return All(preds...)
}

// Filter returns the variants of pl that satisfy every constraint in o, in
// document order. It never fails; the playlist is not modified.
func Filter(pl *variant.Playlist, o Options) []*variant.Variant {
	keep := o.Predicate(pl)
	out := make([]*variant.Variant, 0, len(pl.Variants))
	for _, v := range pl.Variants {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Select filters pl and, when requested, sorts the result by bandwidth.
func Select(pl *variant.Playlist, o Options) []*variant.Variant {
	out := Filter(pl, o)
	if o.SortByBandwidth {
		SortByBandwidth(out)
	}
	return out
}

// Best returns the highest-bandwidth variant satisfying o. The earliest
// declared variant wins a tie. It returns false when nothing matches.
func Best(pl *variant.Playlist, o Options) (*variant.Variant, bool) {
	o.SortByBandwidth = true
	out := Select(pl, o)
	if len(out) == 0 {
		return nil, false
	}
	return out[0], true
}
