package compile

import (
	"slices"

	"github.com/gogpu/paintlayers"
)

// Entry is one base layer and the adjustment layers consumed by it.
type Entry struct {
	Base        *paintlayers.Layer
	Adjustments []*paintlayers.Layer
}

// Group is the visible base layers of one channel kind, bottom first.
type Group struct {
	Kind    paintlayers.ChannelKind
	Entries []Entry
}

// Classify groups the visible layers of s by channel kind. Groups are
// ordered by kind. Each entry's adjustment run is the visible adjustment
// layers directly above its base layer, up to the first layer that is not
// an adjustment. Adjustments with no base layer below them are ignored.
//
// Classify prunes invalid layers but otherwise does not modify s.
func Classify(s *paintlayers.Stack) []Group {
	layers := s.Layers()
	byKind := make(map[paintlayers.ChannelKind]*Group)
	for i, l := range layers {
		if !l.Visible || !l.Kind.IsBase() {
			continue
		}
		g := byKind[l.Kind]
		if g == nil {
			g = &Group{Kind: l.Kind}
			byKind[l.Kind] = g
		}
		g.Entries = append(g.Entries, Entry{Base: l, Adjustments: adjustmentRun(layers, i)})
	}

	groups := make([]Group, 0, len(byKind))
	for _, g := range byKind {
		groups = append(groups, *g)
	}
	slices.SortFunc(groups, func(a, b Group) int { return int(a.Kind) - int(b.Kind) })
	return groups
}

func adjustmentRun(layers []*paintlayers.Layer, base int) []*paintlayers.Layer {
	var run []*paintlayers.Layer
	for _, l := range layers[base+1:] {
		if !l.Kind.IsAdjustment() {
			break
		}
		if l.Visible {
			run = append(run, l)
		}
	}
	return run
}

// Kinds returns the kinds of groups in order.
func Kinds(groups []Group) []paintlayers.ChannelKind {
	kinds := make([]paintlayers.ChannelKind, len(groups))
	for i, g := range groups {
		kinds[i] = g.Kind
	}
	return kinds
}
