package paintlayers

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent = slog.New(slog.DiscardHandler)
	logger atomic.Pointer[slog.Logger]
)

// SetLogger sets the logger shared by paintlayers and its sub-packages.
// Nothing is logged until it is called; nil restores the silent default.
// It is safe to call while other goroutines log.
//
// Levels:
//   - [slog.LevelDebug]: stack edits, graph rebuilds, bake state changes
//   - [slog.LevelInfo]: finished bake jobs and merges
//   - [slog.LevelWarn]: skipped stages and teardown failures
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return silent
}

// Component returns the current logger with a component attribute, so
// records from compile, render, bake and preview can be told apart.
func Component(name string) *slog.Logger {
	return Logger().With(slog.String("component", name))
}

// LogValue reports a layer as a group of its image, kind, blend and opacity.
func (l *Layer) LogValue() slog.Value {
	name := ""
	if img := l.Image(); img != nil {
		name = img.Name()
	}
	return slog.GroupValue(
		slog.String("image", name),
		slog.String("kind", l.Kind.String()),
		slog.String("blend", l.Blend.String()),
		slog.Float64("opacity", float64(l.Opacity)),
	)
}
