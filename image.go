package paintlayers

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/paintlayers/internal/image"
)

// Image errors.
var (
	// ErrImageRemoved is returned when operating on an image that was removed from its store.
	ErrImageRemoved = errors.New("paintlayers: image removed")
)

// Image is a named float RGBA pixel buffer owned by an ImageStore.
//
// Layers hold non-owning references to images. Removing an image from its
// store turns every such reference null, which makes the layer invalid.
type Image struct {
	name    string
	buf     *image.Buf
	store   *ImageStore
	removed bool

	// Path is the file the image was loaded from or last saved to.
	Path string
}

// Name returns the image name, unique within its store.
func (img *Image) Name() string { return img.name }

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.buf.Width() }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.buf.Height() }

// Channels returns 1, 3 or 4.
func (img *Image) Channels() int { return img.buf.Channels() }

// Buffer exposes the pixel buffer.
func (img *Image) Buffer() *image.Buf { return img.buf }

// SetBuffer replaces the pixel buffer.
func (img *Image) SetBuffer(b *image.Buf) { img.buf = b }

// At returns the pixel at (x, y) expanded to RGBA.
func (img *Image) At(x, y int) [4]float32 { return img.buf.At(x, y) }

// Removed reports whether the image has been removed from its store.
func (img *Image) Removed() bool { return img == nil || img.removed }

// Save writes img as PNG to path and records the path.
func (img *Image) Save(path string) error {
	if img.Removed() {
		return ErrImageRemoved
	}
	if err := image.SavePNG(path, img.buf); err != nil {
		return fmt.Errorf("paintlayers: save %s: %w", path, err)
	}
	img.Path = path
	return nil
}

// Resize resamples the image in place.
func (img *Image) Resize(width, height int, filter Interpolation) error {
	b, err := image.Resample(img.buf, width, height, filter.Sampling())
	if err != nil {
		return fmt.Errorf("paintlayers: resize %q: %w", img.name, err)
	}
	img.buf = b
	return nil
}

// ImageStore owns images by name.
//
// Thread safety: all methods are safe for concurrent use.
type ImageStore struct {
	mu     sync.Mutex
	images map[string]*Image
}

// NewImageStore creates an empty store.
func NewImageStore() *ImageStore {
	return &ImageStore{images: make(map[string]*Image)}
}

// New creates a zeroed image. The name is made unique if it is taken.
func (s *ImageStore) New(name string, width, height, channels int) (*Image, error) {
	buf, err := image.NewBuf(width, height, channels)
	if err != nil {
		return nil, fmt.Errorf("paintlayers: new image %q: %w", name, err)
	}
	return s.Add(name, buf), nil
}

// Add wraps buf in a new image owned by the store.
func (s *ImageStore) Add(name string, buf *image.Buf) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	img := &Image{name: s.uniqueLocked(name), buf: buf, store: s}
	s.images[img.name] = img
	return img
}

// Load reads a PNG or JPEG file into a new image named after the file.
func (s *ImageStore) Load(path string) (*Image, error) {
	buf, err := image.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("paintlayers: load %s: %w", path, err)
	}
	base := filepath.Base(path)
	img := s.Add(strings.TrimSuffix(base, filepath.Ext(base)), buf)
	img.Path = path
	return img, nil
}

// Copy duplicates img under a new name.
func (s *ImageStore) Copy(img *Image, name string) (*Image, error) {
	if img.Removed() {
		return nil, ErrImageRemoved
	}
	cp := s.Add(name, img.buf.Clone())
	cp.Path = img.Path
	return cp, nil
}

// Get returns the image with the given name, or nil.
func (s *ImageStore) Get(name string) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images[name]
}

// Remove deletes img from the store. References to it become null.
func (s *ImageStore) Remove(img *Image) {
	if img == nil || img.store != s {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images[img.name] == img {
		delete(s.images, img.name)
	}
	img.removed = true
}

// Rename gives img a new name, made unique if taken, and returns it.
func (s *ImageStore) Rename(img *Image, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images[img.name] == img {
		delete(s.images, img.name)
	}
	img.name = s.uniqueLocked(name)
	s.images[img.name] = img
	return img.name
}

// Len returns the number of live images.
func (s *ImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Names returns the names of all live images, sorted.
func (s *ImageStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.images))
	for n := range s.images {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// NextName returns the first free name of the form prefix_NN, starting at 01.
func (s *ImageStore) NextName(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s_%02d", prefix, n)
		if _, ok := s.images[name]; !ok {
			return name
		}
	}
}

// uniqueLocked appends .001, .002, ... until name is free.
func (s *ImageStore) uniqueLocked(name string) string {
	if _, ok := s.images[name]; !ok {
		return name
	}
	for n := 1; ; n++ {
		cand := fmt.Sprintf("%s.%03d", name, n)
		if _, ok := s.images[cand]; !ok {
			return cand
		}
	}
}

// Interpolation is the texture filtering used by image samplers.
type Interpolation uint8

const (
	InterpLinear Interpolation = iota
	InterpClosest
	InterpCubic
	// InterpSmart picks cubic filtering; it is kept for parity with hosts
	// that switch filters by zoom level.
	InterpSmart
)

var interpolationNames = []string{"Linear", "Closest", "Cubic", "Smart"}

// String returns the interpolation name.
func (i Interpolation) String() string {
	if int(i) < len(interpolationNames) {
		return interpolationNames[i]
	}
	return fmt.Sprintf("Interpolation(%d)", uint8(i))
}

// ParseInterpolation parses an interpolation name, ignoring case.
func ParseInterpolation(s string) (Interpolation, error) {
	for i, name := range interpolationNames {
		if strings.EqualFold(name, s) {
			return Interpolation(i), nil
		}
	}
	return 0, fmt.Errorf("paintlayers: unknown interpolation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (i Interpolation) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Interpolation) UnmarshalText(b []byte) error {
	v, err := ParseInterpolation(string(b))
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// Sampling maps the filter onto the pixel sampler mode.
func (i Interpolation) Sampling() image.InterpolationMode {
	switch i {
	case InterpClosest:
		return image.InterpNearest
	case InterpCubic, InterpSmart:
		return image.InterpBicubic
	default:
		return image.InterpBilinear
	}
}
