package image

import (
	"errors"
	"fmt"
	"image"
	stdcolor "image/color"
	_ "image/jpeg" // register JPEG for Decode
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/gogpu/paintlayers/internal/color"
)

// I/O errors.
var (
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// LoadImage loads a PNG or JPEG file, detecting the format from content.
// The result always has 4 channels.
func LoadImage(path string) (*Buf, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("image: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (*Buf, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	return FromStdImage(img), nil
}

// DecodePNG decodes a PNG image from r.
func DecodePNG(r io.Reader) (*Buf, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image: decode PNG: %w", err)
	}
	return FromStdImage(img), nil
}

// SavePNG writes b as an 8-bit PNG file, creating parent directories.
func SavePNG(path string, b *Buf) error {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("image: create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := EncodePNG(f, b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// EncodePNG encodes b as an 8-bit PNG. Single-channel buffers are
// written as grayscale, everything else as non-premultiplied RGBA.
func EncodePNG(w io.Writer, b *Buf) error {
	var img image.Image
	if b.channels == 1 {
		img = ToGray(b)
	} else {
		img = ToNRGBA(b)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}

// ToNRGBA quantises b to an 8-bit non-premultiplied image.
// Samples are clamped to [0,1] before rounding.
func ToNRGBA(b *Buf) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	for y := range b.height {
		for x := range b.width {
			c := b.At(x, y)
			off := y*out.Stride + x*4
			out.Pix[off] = color.ClampAndRound(c[0])
			out.Pix[off+1] = color.ClampAndRound(c[1])
			out.Pix[off+2] = color.ClampAndRound(c[2])
			out.Pix[off+3] = color.ClampAndRound(c[3])
		}
	}
	return out
}

// ToGray quantises the first channel of b to an 8-bit grayscale image.
func ToGray(b *Buf) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, b.width, b.height))
	for y := range b.height {
		for x := range b.width {
			out.Pix[y*out.Stride+x] = color.ClampAndRound(b.At(x, y)[0])
		}
	}
	return out
}

// FromStdImage converts any image.Image to a 4-channel float buffer.
func FromStdImage(img image.Image) *Buf {
	bounds := img.Bounds()
	buf := MustBuf(bounds.Dx(), bounds.Dy(), 4)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range buf.height {
			row := nrgba.Pix[y*nrgba.Stride:]
			for x := range buf.width {
				o := x * 4
				i := buf.offset(x, y)
				buf.pix[i] = float32(row[o]) / 255
				buf.pix[i+1] = float32(row[o+1]) / 255
				buf.pix[i+2] = float32(row[o+2]) / 255
				buf.pix[i+3] = float32(row[o+3]) / 255
			}
		}
		return buf
	}

	for y := range buf.height {
		for x := range buf.width {
			c := stdcolor.NRGBA64Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(stdcolor.NRGBA64)
			i := buf.offset(x, y)
			buf.pix[i] = float32(c.R) / 0xffff
			buf.pix[i+1] = float32(c.G) / 0xffff
			buf.pix[i+2] = float32(c.B) / 0xffff
			buf.pix[i+3] = float32(c.A) / 0xffff
		}
	}
	return buf
}

// toNRGBA64 converts b to a 16-bit image for the scalers in resample.go.
func toNRGBA64(b *Buf) *image.NRGBA64 {
	out := image.NewNRGBA64(image.Rect(0, 0, b.width, b.height))
	for y := range b.height {
		for x := range b.width {
			c := b.At(x, y)
			out.SetNRGBA64(x, y, stdcolor.NRGBA64{
				R: quantize16(c[0]),
				G: quantize16(c[1]),
				B: quantize16(c[2]),
				A: quantize16(c[3]),
			})
		}
	}
	return out
}

func quantize16(v float32) uint16 {
	return uint16(color.Clamp01(v)*0xffff + 0.5)
}
