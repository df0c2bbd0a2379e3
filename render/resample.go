// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/chewxy/math32"

	"github.com/gogpu/paintlayers/internal/image"
)

// resampleKey identifies a resampled image by source content, so edits
// made to a buffer in place miss the cache.
type resampleKey struct {
	src  *image.Buf
	sum  uint64
	w, h int
	mode image.InterpolationMode
}

var sumSeed = maphash.MakeSeed()

// resample scales src to the evaluator size. Cached results are shared
// and must not be modified.
func (e *evaluator) resample(src *image.Buf, mode image.InterpolationMode) (*image.Buf, error) {
	create := func() (*image.Buf, error) { return image.Resample(src, e.w, e.h, mode) }
	if e.resampled == nil {
		return create()
	}
	key := resampleKey{src: src, sum: checksum(src), w: e.w, h: e.h, mode: mode}
	return e.resampled.GetOrCreate(key, create)
}

func checksum(b *image.Buf) uint64 {
	var h maphash.Hash
	h.SetSeed(sumSeed)
	var chunk [1024]byte
	pix := b.Pix()
	for len(pix) > 0 {
		n := min(len(pix), len(chunk)/4)
		for i, v := range pix[:n] {
			binary.LittleEndian.PutUint32(chunk[i*4:], math32.Float32bits(v))
		}
		_, _ = h.Write(chunk[:n*4])
		pix = pix[n:]
	}
	return h.Sum64()
}
