// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/compile"
	"github.com/gogpu/paintlayers/internal/image"
	"github.com/gogpu/paintlayers/render"
	"github.com/gogpu/paintlayers/shadergraph"
)

// Pipeline errors.
var (
	// ErrNoSavePath is reported when the save path is unset or is not an
	// existing directory. The baked images are kept but not written.
	ErrNoSavePath = errors.New("bake: save path missing or not a directory")
	// ErrInvalidSize is returned for a non-positive texture size.
	ErrInvalidSize = errors.New("bake: invalid texture size")
	// ErrSizeMismatch is returned when the alpha pass and the color pass
	// differ in size.
	ErrSizeMismatch = errors.New("bake: alpha pass size differs from color pass")
)

// Pipeline bakes layer stacks through a renderer.
//
// A Pipeline runs one job at a time on the caller's goroutine and is not
// safe for concurrent use.
type Pipeline struct {
	compiler *compile.Compiler
	store    *paintlayers.ImageStore
	ws       *render.Workspace
	opts     pipelineOptions
	state    State
}

// New creates a pipeline compiling with c and storing baked images in
// store. Without WithRenderer the software renderer is used.
func New(c *compile.Compiler, store *paintlayers.ImageStore, opts ...Option) *Pipeline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		o.renderer = render.NewSoftwareRenderer()
	}
	return &Pipeline{
		compiler: c,
		store:    store,
		ws:       render.NewWorkspace(c.Library()),
		opts:     o,
	}
}

// Workspace returns the workspace holding scratch bake resources.
func (p *Pipeline) Workspace() *render.Workspace { return p.ws }

// Compiler returns the compiler the pipeline bakes with.
func (p *Pipeline) Compiler() *compile.Compiler { return p.compiler }

// State returns the state of the last job.
func (p *Pipeline) State() State { return p.state }

// job is the bake of one channel.
type job struct {
	kind   paintlayers.ChannelKind
	name   string
	policy AlphaPolicy
	err    error

	group *shadergraph.Tree
	// Normal jobs render the shading normal of a material combining the
	// normal group with bump from the height group.
	normals     bool
	hgroup      *shadergraph.Tree
	ngroup      *shadergraph.Tree
	intensity   float32
	invertGreen bool

	width, height int
	uvMap         string
	savePath      string
	persist       bool
}

type scratch struct {
	scene *render.Scene
	mat   *render.Material
	plane *render.Object
	color *paintlayers.Image
	alpha *paintlayers.Image
}

// Export compiles s and bakes every channel it uses.
//
// Channel failures do not stop the export: each is recorded in the
// returned Report and sent to the reporter. Export only returns an error
// when the stack cannot be compiled at all.
func (p *Pipeline) Export(ctx context.Context, s *paintlayers.Stack, set Settings) (*Report, error) {
	if s.Material == nil {
		return nil, compile.ErrNoMaterial
	}
	if set.Width <= 0 || set.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, set.Width, set.Height)
	}
	res, err := p.compiler.Compile(s)
	if err != nil {
		return nil, fmt.Errorf("bake: compile %s: %w", s.Name, err)
	}
	for _, w := range res.Warnings() {
		p.opts.reporter.Warn(w.Error())
	}

	jobs := p.plan(s, res, set)
	rep := &Report{}
	for i, j := range jobs {
		if j.err != nil {
			p.opts.reporter.Error(j.err.Error())
			rep.Channels = append(rep.Channels, ChannelReport{Kind: j.kind, Err: j.err})
		} else {
			rep.Channels = append(rep.Channels, p.run(ctx, j))
		}
		p.opts.reporter.Info(fmt.Sprintf("Done %d/%d", i+1, len(jobs)))
	}
	logger().Info("exported set",
		"set", s.Name, "material", s.Material.Name, "channels", len(jobs), "files", len(rep.Files()))
	return rep, nil
}

// plan returns one job per channel to bake. With height-to-normal the
// height channel is folded into the normal job, or baked as a normal map
// under the normal channel's settings when there is no normal channel.
func (p *Pipeline) plan(s *paintlayers.Stack, res *compile.Result, set Settings) []*job {
	vars := set.vars(s)
	hg, ng := res.Graph(paintlayers.Height), res.Graph(paintlayers.Normal)
	normalJob := ng != nil && !set.Channel(paintlayers.Normal).Disabled

	var jobs []*job
	for _, g := range res.Graphs {
		cs := set.Channel(g.Kind)
		if cs.Disabled {
			continue
		}
		j := &job{
			kind:        g.Kind,
			group:       g.Tree,
			intensity:   s.HeightIntensity,
			invertGreen: set.InvertGreen,
			width:       set.Width,
			height:      set.Height,
			uvMap:       s.UVAttribute,
			savePath:    set.SavePath,
			persist:     true,
		}
		switch {
		case g.Kind == paintlayers.Normal:
			j.normals, j.ngroup = true, g.Tree
			if set.HeightToNormal && hg != nil {
				j.hgroup = hg.Tree
			}
		case g.Kind == paintlayers.Height && set.HeightToNormal:
			if normalJob {
				logger().Debug("height baked into normal map", "set", s.Name)
				continue
			}
			j.normals, j.hgroup = true, g.Tree
			cs = set.Channel(paintlayers.Normal)
		}
		j.policy = cs.Alpha
		j.name, j.err = Expand(cs.Name, vars)
		jobs = append(jobs, j)
	}
	return jobs
}

// run executes one job. Scratch resources are torn down on every path.
func (p *Pipeline) run(ctx context.Context, j *job) (cr ChannelReport) {
	cr = ChannelReport{Kind: j.kind, Name: j.name}
	sc := &scratch{}
	defer func() {
		p.enter(j, TearingDown)
		p.teardown(j, sc, cr.Image != nil)
		if cr.Err != nil {
			p.enter(j, Failed)
			return
		}
		p.enter(j, Idle)
		logger().Info("baked channel", "channel", j.kind, "name", j.name, "files", len(cr.Files))
	}()

	p.enter(j, PreparingContext)
	if j.kind == paintlayers.Height && !j.normals {
		// An alpha pass carries the coverage, so the background under the
		// bottom height layer must stay transparent.
		reset, err := p.combine(j.policy != AlphaNone)
		if err != nil {
			cr.Err = fmt.Errorf("bake: %s: %w", j.kind, err)
			p.opts.reporter.Error(cr.Err.Error())
			return cr
		}
		defer reset()
	}
	label := "Bake_" + j.kind.String()
	sc.scene = p.ws.NewScene(label)
	sc.mat = p.ws.NewMaterial(label)
	sc.plane = p.ws.NewPlane("BakePlane", sc.scene, sc.mat, j.uvMap)

	p.enter(j, Rendering)
	if err := p.render(ctx, j, sc); err != nil {
		cr.Err = fmt.Errorf("bake: %s: %w", j.kind, err)
		p.opts.reporter.Error(cr.Err.Error())
		return cr
	}

	p.enter(j, Compositing)
	if err := composite(sc.color, sc.alpha, j.policy); err != nil {
		cr.Err = fmt.Errorf("bake: %s: %w", j.kind, err)
		p.opts.reporter.Error(cr.Err.Error())
		return cr
	}
	cr.Image = sc.color
	if j.policy == AlphaSeparate {
		cr.Alpha = sc.alpha
	}
	if !j.persist {
		return cr
	}

	p.enter(j, Persisting)
	files, err := p.persist(j, sc)
	cr.Files = files
	switch {
	case errors.Is(err, ErrNoSavePath):
		cr.Warnings = append(cr.Warnings, err)
		p.opts.reporter.Warn(err.Error())
	case err != nil:
		cr.Err = err
		p.opts.reporter.Error(err.Error())
	}
	return cr
}

// combine sets the compiler's combine-active signal and returns a
// function restoring the previous value.
func (p *Pipeline) combine(active bool) (func(), error) {
	prev := p.compiler.CombineActive()
	if err := p.compiler.SetCombineActive(active); err != nil {
		return nil, err
	}
	return func() {
		if err := p.compiler.SetCombineActive(prev); err != nil {
			logger().Warn("combine signal not reset", "err", err)
		}
	}, nil
}

func (p *Pipeline) enter(j *job, next State) {
	if !p.state.CanTransition(next) {
		logger().Warn("unexpected bake state change", "channel", j.kind, "from", p.state, "to", next)
	}
	p.state = next
	logger().Debug("bake state", "channel", j.kind, "state", next)
	if p.opts.observe != nil {
		p.opts.observe(j.kind, next)
	}
}

// render allocates the output images and renders the color pass and,
// unless the policy is none, the alpha pass.
func (p *Pipeline) render(ctx context.Context, j *job, sc *scratch) error {
	var err error
	sc.color, err = p.store.New(j.name, j.width, j.height, 4)
	if err != nil {
		return err
	}
	pass := render.PassEmit
	if j.normals {
		pass = render.PassNormal
		err = normalMaterial(sc.mat.Tree, j.hgroup, j.ngroup, j.intensity, j.invertGreen)
	} else {
		err = colorMaterial(sc.mat.Tree, j.group, j.policy)
	}
	if err != nil {
		return fmt.Errorf("build material: %w", err)
	}
	if err := p.pass(ctx, sc, pass, sc.color, gputypes.TextureFormatRGBA8Unorm); err != nil {
		return err
	}
	if j.policy == AlphaNone {
		return nil
	}

	sc.alpha, err = p.store.New(j.name+"_a", j.width, j.height, 1)
	if err != nil {
		return err
	}
	if j.normals {
		err = normalAlphaMaterial(sc.mat.Tree, j.hgroup, j.ngroup)
	} else {
		err = alphaMaterial(sc.mat.Tree, j.group)
	}
	if err != nil {
		return fmt.Errorf("build alpha material: %w", err)
	}
	return p.pass(ctx, sc, render.PassEmit, sc.alpha, gputypes.TextureFormatR8Unorm)
}

func (p *Pipeline) pass(ctx context.Context, sc *scratch, pass render.Pass, img *paintlayers.Image, format gputypes.TextureFormat) error {
	tgt, err := render.NewTarget(img, format)
	if err != nil {
		return err
	}
	if err := p.opts.renderer.Render(ctx, sc.plane, pass, tgt); err != nil {
		return fmt.Errorf("render %s pass: %w", pass, err)
	}
	return nil
}

// composite widens the color image to four channels with opaque alpha
// and, under the combined policy, copies the alpha pass into it.
func composite(color, alpha *paintlayers.Image, policy AlphaPolicy) error {
	buf := color.Buffer()
	if buf.Channels() != 4 {
		wide, err := image.NewBuf(buf.Width(), buf.Height(), 4)
		if err != nil {
			return err
		}
		if err := wide.CopyFrom(buf); err != nil {
			return err
		}
		color.SetBuffer(wide)
		buf = wide
	}
	if policy != AlphaCombined || alpha == nil {
		return nil
	}
	if alpha.Width() != buf.Width() || alpha.Height() != buf.Height() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			alpha.Width(), alpha.Height(), buf.Width(), buf.Height())
	}
	for y := range buf.Height() {
		for x := range buf.Width() {
			c := buf.At(x, y)
			c[3] = alpha.At(x, y)[0]
			if err := buf.Set(x, y, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// persist writes <save>/<name>.png and, for separate alpha, <name>_a.png.
// A failed write does not stop the other one.
func (p *Pipeline) persist(j *job, sc *scratch) ([]string, error) {
	if j.savePath == "" {
		return nil, ErrNoSavePath
	}
	if fi, err := os.Stat(j.savePath); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoSavePath, j.savePath)
	}

	var files []string
	write := func(img *paintlayers.Image, name string) error {
		path := filepath.Join(j.savePath, name+".png")
		if err := img.Save(path); err != nil {
			return fmt.Errorf("bake: %w", err)
		}
		files = append(files, path)
		return nil
	}
	errs := []error{write(sc.color, j.name)}
	if j.policy == AlphaSeparate && sc.alpha != nil {
		errs = append(errs, write(sc.alpha, j.name+"_a"))
	}
	return files, errors.Join(errs...)
}

// teardown removes the scratch scene, material and plane. The alpha
// image survives only under the separate policy, and neither image
// survives a failed job.
func (p *Pipeline) teardown(j *job, sc *scratch, keep bool) {
	var errs []error
	if sc.mat != nil {
		errs = append(errs, p.ws.RemoveMaterial(sc.mat))
	}
	if sc.alpha != nil && (!keep || j.policy != AlphaSeparate) {
		p.store.Remove(sc.alpha)
	}
	if sc.color != nil && !keep {
		p.store.Remove(sc.color)
	}
	if sc.plane != nil {
		errs = append(errs, p.ws.RemoveObject(sc.plane))
	}
	if sc.scene != nil {
		errs = append(errs, p.ws.RemoveScene(sc.scene))
	}
	if err := errors.Join(errs...); err != nil {
		logger().Warn("bake teardown incomplete", "channel", j.kind, "err", err)
	}
}
