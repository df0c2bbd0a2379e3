// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package preview

import (
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/spirv"
)

// Option configures Compile and NewPublisher.
type Option func(*options)

type options struct {
	naga naga.CompileOptions
}

func defaultOptions() options {
	return options{naga: naga.DefaultOptions()}
}

// WithSPIRVVersion selects the SPIR-V version of compiled modules.
// The default is 1.3.
func WithSPIRVVersion(v spirv.Version) Option {
	return func(o *options) {
		o.naga.SPIRVVersion = v
	}
}

// WithDebug includes debug names in compiled modules.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.naga.Debug = debug
	}
}

// WithValidation toggles IR validation before SPIR-V emission.
func WithValidation(validate bool) Option {
	return func(o *options) {
		o.naga.Validate = validate
	}
}

func collect(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
