package compile

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/shadergraph"
)

var (
	// ErrNoMaterial is returned for a stack without a material.
	ErrNoMaterial = errors.New("compile: stack has no material")
	// ErrMissingSubgraph reports a custom layer whose sub-graph is gone.
	// The stage is dropped and the error is returned as a warning.
	ErrMissingSubgraph = errors.New("compile: custom sub-graph not found")
)

func logger() *slog.Logger { return paintlayers.Component("compile") }

// GroupName returns the name of the group tree compiled for kind on the
// named material.
func GroupName(kind paintlayers.ChannelKind, material string) string {
	return fmt.Sprintf("%s_Group_%s", kind, material)
}

// Graph is the compiled group tree of one channel.
type Graph struct {
	Kind     paintlayers.ChannelKind
	Material string
	Tree     *shadergraph.Tree
	// Layers is the number of base layers in the chain.
	Layers   int
	Warnings []error

	fingerprint uint64
}

// Result is the outcome of compiling a stack.
type Result struct {
	Material string
	// Graphs holds one graph per used channel kind, ordered by kind.
	Graphs []*Graph
	// Installed is the material tree the graphs were wired into; nil in
	// custom mode.
	Installed *shadergraph.Tree
	// Rebuilt counts graphs that were regenerated rather than reused.
	Rebuilt int
}

// Warnings returns the warnings of every graph.
func (r *Result) Warnings() []error {
	var out []error
	for _, g := range r.Graphs {
		out = append(out, g.Warnings...)
	}
	return out
}

// Graph returns the graph of kind, or nil.
func (r *Result) Graph(kind paintlayers.ChannelKind) *Graph {
	for _, g := range r.Graphs {
		if g.Kind == kind {
			return g
		}
	}
	return nil
}

type cacheKey struct {
	material string
	kind     paintlayers.ChannelKind
}

// Compiler compiles stacks into a shadergraph library. It caches one graph
// per (material, kind) and rebuilds it only when its inputs change.
//
// A Compiler is not safe for concurrent use.
type Compiler struct {
	lib   *shadergraph.Library
	opts  options
	cache map[cacheKey]*Graph
	ids   map[cacheKey]*IdentityMap
	// combine drives the height background of every material.
	combine *shadergraph.Node
}

// New returns a Compiler emitting into lib.
func New(lib *shadergraph.Library, opts ...Option) *Compiler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler{
		lib:   lib,
		opts:  o,
		cache: make(map[cacheKey]*Graph),
		ids:   make(map[cacheKey]*IdentityMap),
	}
}

// Library returns the library the compiler emits into.
func (c *Compiler) Library() *shadergraph.Library { return c.lib }

// SetFiltering changes sampler interpolation. Graphs pick it up on their
// next compile.
func (c *Compiler) SetFiltering(f paintlayers.Interpolation) { c.opts.filtering = f }

// Filtering returns the sampler interpolation.
func (c *Compiler) Filtering() paintlayers.Interpolation { return c.opts.filtering }

// SetCombineActive switches the height background shared by all compiled
// height channels without rebuilding them.
func (c *Compiler) SetCombineActive(active bool) error {
	c.opts.combineActive = active
	if c.combine == nil || c.combine.Tree() == nil {
		if _, err := c.helpers(); err != nil {
			return err
		}
	}
	c.combine.Outputs[0].Default[0] = combineValue(active)
	return nil
}

// CombineActive reports the current combine-active signal.
func (c *Compiler) CombineActive() bool { return c.opts.combineActive }

// Identities returns the identity map of the (material, kind) graph,
// or nil if it was never compiled.
func (c *Compiler) Identities(material string, kind paintlayers.ChannelKind) *IdentityMap {
	return c.ids[cacheKey{material, kind}]
}

// Cached returns the cached graph of (material, kind), or nil.
func (c *Compiler) Cached(material string, kind paintlayers.ChannelKind) *Graph {
	return c.cache[cacheKey{material, kind}]
}

// Invalidate drops the cached graphs of material so the next compile
// rebuilds them. Identity maps are kept.
func (c *Compiler) Invalidate(material string) {
	for k := range c.cache {
		if k.material == material {
			delete(c.cache, k)
		}
	}
}

func (c *Compiler) helpers() (*shadergraph.Tree, error) {
	bn, err := ensureBlendNormals(c.lib)
	if err != nil {
		return nil, fmt.Errorf("compile: blend normals group: %w", err)
	}
	_, v, err := ensureSceneProperties(c.lib, c.opts.combineActive)
	if err != nil {
		return nil, fmt.Errorf("compile: scene properties group: %w", err)
	}
	c.combine = v
	return bn, nil
}

// Compile classifies s, rebuilds every changed channel graph and installs
// the graphs into the material tree.
func (c *Compiler) Compile(s *paintlayers.Stack) (*Result, error) {
	if s.Material == nil {
		return nil, ErrNoMaterial
	}
	mat := s.Material.Name
	res := &Result{Material: mat}
	for _, g := range Classify(s) {
		graph, rebuilt, err := c.channel(s, g)
		if err != nil {
			return nil, err
		}
		if rebuilt {
			res.Rebuilt++
		}
		res.Graphs = append(res.Graphs, graph)
	}
	if s.Shader != paintlayers.ShaderCustom {
		t, err := install(c.lib, s, res.Graphs)
		if err != nil {
			return nil, err
		}
		res.Installed = t
	}
	logger().Debug("compiled stack",
		"stack", s.Name, "material", mat, "channels", len(res.Graphs), "rebuilt", res.Rebuilt)
	return res, nil
}

// Channel compiles the graph of one channel kind of s. It returns nil if
// no visible layer of that kind exists.
func (c *Compiler) Channel(s *paintlayers.Stack, kind paintlayers.ChannelKind) (*Graph, error) {
	if s.Material == nil {
		return nil, ErrNoMaterial
	}
	for _, g := range Classify(s) {
		if g.Kind == kind {
			graph, _, err := c.channel(s, g)
			return graph, err
		}
	}
	return nil, nil
}

func (c *Compiler) channel(s *paintlayers.Stack, g Group) (*Graph, bool, error) {
	bn, err := c.helpers()
	if err != nil {
		return nil, false, err
	}
	key := cacheKey{s.Material.Name, g.Kind}
	name := GroupName(g.Kind, key.material)
	live := liveTokens(c.lib, g)
	fp := c.fingerprint(s, g)
	if cached := c.cache[key]; cached != nil && cached.fingerprint == fp && c.lib.Group(name) == cached.Tree {
		return cached, false, nil
	}

	ids := c.ids[key]
	if ids == nil {
		ids = NewIdentityMap()
		c.ids[key] = ids
	}
	t, _ := c.lib.EnsureGroup(name)
	ch := &chain{
		wiring:   wiring{tree: t},
		lib:      c.lib,
		ids:      ids,
		kind:     g.Kind,
		filter:   c.opts.filtering,
		blendNrm: bn,
	}
	if err := ch.build(s, g, live); err != nil {
		return nil, false, fmt.Errorf("compile: %s: %w", name, err)
	}
	graph := &Graph{
		Kind:        g.Kind,
		Material:    key.material,
		Tree:        t,
		Layers:      len(g.Entries),
		Warnings:    ch.warnings,
		fingerprint: fp,
	}
	c.cache[key] = graph
	logger().Debug("rebuilt channel graph",
		"group", name, "layers", graph.Layers, "nodes", t.Len(), "stateful", ids.Len())
	return graph, true, nil
}

// fingerprint hashes everything a channel graph is derived from.
func (c *Compiler) fingerprint(s *paintlayers.Stack, g Group) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s|", g.Kind, c.opts.filtering, s.UVAttribute)
	for _, e := range g.Entries {
		writeLayer(h, e.Base)
		for _, a := range e.Adjustments {
			io.WriteString(h, "+")
			writeLayer(h, a)
			if a.Kind == paintlayers.Custom {
				sub := c.lib.Group(a.CustomGraph)
				var ins, outs []shadergraph.Socket
				if sub != nil {
					ins, outs = sub.Interface()
				}
				fmt.Fprintf(h, "%p/%d/%d", sub, len(ins), len(outs))
			}
		}
		io.WriteString(h, ";")
	}
	return h.Sum64()
}

func writeLayer(w io.Writer, l *paintlayers.Layer) {
	img := l.Image()
	fmt.Fprintf(w, "%p:%p:%s:%s:%s:%g:%g:%g:%g:%s:%d:%d:%s:%s",
		l, img, img.Name(), l.Kind, l.Blend, l.Opacity, l.Hue, l.Saturation, l.Value,
		l.CustomGraph, l.CustomInput, l.CustomOutput, l.CustomRole, l.Token)
}
