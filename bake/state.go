// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import "fmt"

// State is the phase of a bake job.
type State uint8

// Job states. A job moves forward through the list and always passes
// TearingDown before it settles in Idle or Failed.
const (
	Idle State = iota
	PreparingContext
	Rendering
	Compositing
	Persisting
	TearingDown
	Failed
)

var stateNames = []string{
	"Idle", "PreparingContext", "Rendering", "Compositing", "Persisting", "TearingDown", "Failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// CanTransition reports whether a job may move from s to next.
func (s State) CanTransition(next State) bool {
	switch s {
	case Idle, Failed:
		return next == PreparingContext
	case PreparingContext:
		return next == Rendering || next == TearingDown
	case Rendering:
		return next == Compositing || next == TearingDown
	case Compositing:
		return next == Persisting || next == TearingDown
	case Persisting:
		return next == TearingDown
	case TearingDown:
		return next == Idle || next == Failed
	}
	return false
}
