// Package filter provides convolution filters over single-channel float
// buffers.
//
// Filters sample with repeat wrapping because baked textures tile:
//   - Gaussian smoothing (separable)
//   - Height gradients for bump mapping (central difference or Sobel)
package filter
