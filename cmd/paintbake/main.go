// Command paintbake bakes the layer stack of a project file into textures.
//
// Usage:
//
//	paintbake -project sword.toml                 bake every channel
//	paintbake -project sword.toml -merge 2        merge layer 2 into layer 1
//	paintbake -project sword.toml -preview s.wgsl write the preview shader
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/bake"
	"github.com/gogpu/paintlayers/compile"
	"github.com/gogpu/paintlayers/config"
	"github.com/gogpu/paintlayers/preview"
	"github.com/gogpu/paintlayers/render"
	"github.com/gogpu/paintlayers/shadergraph"
)

func main() {
	var (
		configPath  = flag.String("config", "paintbake.toml", "export settings file")
		projectPath = flag.String("project", "", "layer set project file")
		savePath    = flag.String("out", "", "output folder, overrides the settings file")
		size        = flag.Int("size", 0, "square texture size, overrides the settings file")
		merge       = flag.Int("merge", -1, "merge the layer at this index into the one below")
		shaderPath  = flag.String("preview", "", "write the WGSL preview shader to this file")
		workers     = flag.Int("workers", 0, "render goroutines, 0 uses every CPU")
		verbose     = flag.Bool("v", false, "log debug output")
	)
	flag.Parse()
	if *projectPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	paintlayers.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *savePath != "" {
		cfg.Export.SavePath = *savePath
	}
	if *size > 0 {
		cfg.Export.Width, cfg.Export.Height = *size, *size
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	proj, err := config.LoadProject(*projectPath)
	if err != nil {
		log.Fatal(err)
	}
	store := paintlayers.NewImageStore()
	stack, err := proj.Build(store)
	if err != nil {
		log.Fatal(err)
	}

	c := compile.New(shadergraph.NewLibrary(), compile.WithFiltering(cfg.Export.Filtering))
	if *workers <= 0 {
		*workers = runtime.GOMAXPROCS(0)
	}
	r := render.NewSoftwareRenderer(render.WithBumpBlur(cfg.Export.BumpBlur), render.WithWorkers(*workers))
	defer r.Close()
	p := bake.New(c, store, bake.WithRenderer(r), bake.WithReporter(reporter{}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *merge >= 0:
		err = mergeLayer(ctx, p, proj, stack, *merge, *projectPath)
	case *shaderPath != "":
		err = writePreview(c, stack, *shaderPath)
	default:
		file := strings.TrimSuffix(filepath.Base(*projectPath), filepath.Ext(*projectPath))
		err = export(ctx, p, stack, cfg.Settings(proj.Object, file))
	}
	if err != nil {
		stop()
		r.Close()
		log.Fatal(err)
	}
}

func export(ctx context.Context, p *bake.Pipeline, s *paintlayers.Stack, set bake.Settings) error {
	report, err := p.Export(ctx, s, set)
	if err != nil {
		return err
	}
	for _, f := range report.Files() {
		log.Printf("Wrote %s", f)
	}
	return report.Err()
}

// mergeLayer merges layer i down, saves the merged image over the lower
// layer's file and rewrites the project.
func mergeLayer(ctx context.Context, p *bake.Pipeline, proj *config.Project, s *paintlayers.Stack, i int, projectPath string) error {
	l := s.At(i)
	if l == nil {
		return fmt.Errorf("no layer %d in %s (%d layers)", i, s.Name, s.Len())
	}
	var path string
	if below := s.At(i - 1); below != nil {
		path = below.Image().Path
	}
	merged, err := p.MergeDown(ctx, s, l)
	if err != nil {
		return err
	}
	img := merged.Image()
	if path == "" {
		path = proj.ImagePath(img.Name() + ".png")
	}
	if err := img.Save(path); err != nil {
		return err
	}
	proj.Sync(s)
	if err := proj.Save(projectPath); err != nil {
		return err
	}
	log.Printf("Merged layer %d into %s", i, path)
	return nil
}

// writePreview writes the WGSL preview module to path and its SPIR-V
// next to it.
func writePreview(c *compile.Compiler, s *paintlayers.Stack, path string) error {
	sh, err := preview.NewPublisher(c).Publish(s)
	if err != nil {
		return err
	}
	spv := strings.TrimSuffix(path, filepath.Ext(path)) + ".spv"
	if err := errors.Join(
		os.WriteFile(path, []byte(sh.Source), 0o644),
		os.WriteFile(spv, sh.SPIRV, 0o644),
	); err != nil {
		return err
	}
	log.Printf("Preview shader saved to %s (%d textures, %d bytes SPIR-V)", path, len(sh.Bindings), len(sh.SPIRV))
	return nil
}

type reporter struct{}

func (reporter) Info(msg string)  { log.Print(msg) }
func (reporter) Warn(msg string)  { log.Printf("warning: %s", msg) }
func (reporter) Error(msg string) { log.Printf("error: %s", msg) }
