package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/paintlayers"
	"github.com/gogpu/paintlayers/bake"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid settings")

// Config is the export configuration.
type Config struct {
	Export   Export    `toml:"export"`
	Channels []Channel `toml:"channel"`
}

// Export holds settings shared by every channel.
type Export struct {
	SavePath       string                    `toml:"save_path"`
	Width          int                       `toml:"width"`
	Height         int                       `toml:"height"`
	Filtering      paintlayers.Interpolation `toml:"filtering"`
	HeightToNormal bool                      `toml:"height_to_normal"`
	InvertGreen    bool                      `toml:"invert_green"`
	// BumpBlur pre-blurs height before bump mapping, in pixels.
	BumpBlur float64 `toml:"bump_blur"`
}

// Channel is the export entry of one channel kind.
type Channel struct {
	Kind    paintlayers.ChannelKind `toml:"kind"`
	Enabled bool                    `toml:"enabled"`
	Alpha   bake.AlphaPolicy        `toml:"alpha"`
	// Name is the save-name template.
	Name string `toml:"name"`
}

// fileChannel is a channel entry as written; omitted fields keep the
// defaults of the kind.
type fileChannel struct {
	Kind    paintlayers.ChannelKind `toml:"kind"`
	Enabled *bool                   `toml:"enabled"`
	Alpha   *bake.AlphaPolicy       `toml:"alpha"`
	Name    string                  `toml:"name"`
}

// DefaultChannel returns the default entry for kind.
func DefaultChannel(kind paintlayers.ChannelKind) Channel {
	return Channel{
		Kind:    kind,
		Enabled: true,
		Alpha:   bake.DefaultPolicy(kind),
		Name:    kind.String(),
	}
}

// Default returns the default configuration: 1024x1024 linear textures and
// one enabled entry per base channel kind.
func Default() Config {
	c := Config{
		Export: Export{
			Width:     bake.DefaultSize,
			Height:    bake.DefaultSize,
			Filtering: paintlayers.InterpLinear,
		},
	}
	for _, k := range paintlayers.BaseKinds() {
		c.Channels = append(c.Channels, DefaultChannel(k))
	}
	return c
}

// Load reads the configuration at path. A missing file yields Default.
// Kinds the file does not list keep their defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file struct {
		Export   Export        `toml:"export"`
		Channels []fileChannel `toml:"channel"`
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return c, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if file.Export.Width != 0 {
		c.Export.Width = file.Export.Width
	}
	if file.Export.Height != 0 {
		c.Export.Height = file.Export.Height
	}
	c.Export.SavePath = file.Export.SavePath
	c.Export.Filtering = file.Export.Filtering
	c.Export.HeightToNormal = file.Export.HeightToNormal
	c.Export.InvertGreen = file.Export.InvertGreen
	c.Export.BumpBlur = file.Export.BumpBlur
	for _, fc := range file.Channels {
		ch := DefaultChannel(fc.Kind)
		if fc.Enabled != nil {
			ch.Enabled = *fc.Enabled
		}
		if fc.Alpha != nil {
			ch.Alpha = *fc.Alpha
		}
		if fc.Name != "" {
			ch.Name = fc.Name
		}
		c.set(ch)
	}
	return c, c.Validate()
}

// Save writes c to path as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Lookup returns the entry of kind, or its default.
func (c Config) Lookup(kind paintlayers.ChannelKind) Channel {
	for _, ch := range c.Channels {
		if ch.Kind == kind {
			return ch
		}
	}
	return DefaultChannel(kind)
}

func (c *Config) set(ch Channel) {
	for i := range c.Channels {
		if c.Channels[i].Kind == ch.Kind {
			c.Channels[i] = ch
			return
		}
	}
	c.Channels = append(c.Channels, ch)
}

// Validate checks sizes and channel entries.
func (c Config) Validate() error {
	if c.Export.Width < MinSize || c.Export.Width > MaxSize ||
		c.Export.Height < MinSize || c.Export.Height > MaxSize {
		return fmt.Errorf("%w: texture size %dx%d outside [%d,%d]",
			ErrInvalid, c.Export.Width, c.Export.Height, MinSize, MaxSize)
	}
	if c.Export.BumpBlur < 0 {
		return fmt.Errorf("%w: negative bump blur", ErrInvalid)
	}
	for _, ch := range c.Channels {
		if !ch.Kind.IsBase() {
			return fmt.Errorf("%w: %s is not an exportable channel", ErrInvalid, ch.Kind)
		}
	}
	return nil
}

// Settings converts c into bake settings for the given object and project
// file names.
func (c Config) Settings(object, file string) bake.Settings {
	s := bake.Settings{
		SavePath:       c.Export.SavePath,
		Width:          c.Export.Width,
		Height:         c.Export.Height,
		HeightToNormal: c.Export.HeightToNormal,
		InvertGreen:    c.Export.InvertGreen,
		Object:         object,
		File:           file,
		Channels:       make(map[paintlayers.ChannelKind]bake.ChannelSettings, len(c.Channels)),
	}
	for _, ch := range c.Channels {
		s.Channels[ch.Kind] = bake.ChannelSettings{
			Name:     ch.Name,
			Alpha:    ch.Alpha,
			Disabled: !ch.Enabled,
		}
	}
	return s
}
