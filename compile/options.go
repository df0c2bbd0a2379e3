package compile

import "github.com/gogpu/paintlayers"

// Option configures a Compiler.
type Option func(*options)

type options struct {
	filtering     paintlayers.Interpolation
	combineActive bool
}

func defaultOptions() options {
	return options{filtering: paintlayers.InterpLinear}
}

// WithFiltering sets the interpolation of generated image samplers.
// The height channel upgrades linear filtering to cubic.
func WithFiltering(f paintlayers.Interpolation) Option {
	return func(o *options) {
		o.filtering = f
	}
}

// WithCombineActive sets the initial combine-active signal.
func WithCombineActive(active bool) Option {
	return func(o *options) {
		o.combineActive = active
	}
}
