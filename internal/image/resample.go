package image

import (
	"image"

	"golang.org/x/image/draw"
)

// Resample scales src to width x height using the interpolator that matches mode.
// The channel count is preserved. Samples pass through 16-bit precision and
// are clamped to [0,1].
func Resample(src *Buf, width, height int, mode InterpolationMode) (*Buf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if width == src.width && height == src.height {
		return src.Clone(), nil
	}

	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	scaler(mode).Scale(dst, dst.Bounds(), toNRGBA64(src), image.Rect(0, 0, src.width, src.height), draw.Src, nil)

	out := FromStdImage(dst)
	if src.channels == 4 {
		return out, nil
	}
	conv := MustBuf(width, height, src.channels)
	_ = conv.CopyFrom(out)
	return conv, nil
}

func scaler(mode InterpolationMode) draw.Scaler {
	switch mode {
	case InterpNearest:
		return draw.NearestNeighbor
	case InterpBicubic:
		return draw.CatmullRom
	default:
		return draw.BiLinear
	}
}
