// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bake

import (
	"errors"
	"log/slog"

	"github.com/gogpu/paintlayers"
)

// Reporter receives user-facing messages. None of them is fatal.
type Reporter interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

type logReporter struct{}

func (logReporter) Info(msg string)  { logger().Info(msg) }
func (logReporter) Warn(msg string)  { logger().Warn(msg) }
func (logReporter) Error(msg string) { logger().Error(msg) }

// LogReporter returns a Reporter writing to the package logger.
func LogReporter() Reporter { return logReporter{} }

func logger() *slog.Logger { return paintlayers.Component("bake") }

// Message is one reported message.
type Message struct {
	Level slog.Level
	Text  string
}

// Messages is a Reporter that keeps every message in order.
type Messages struct {
	List []Message
}

func (m *Messages) Info(msg string)  { m.add(slog.LevelInfo, msg) }
func (m *Messages) Warn(msg string)  { m.add(slog.LevelWarn, msg) }
func (m *Messages) Error(msg string) { m.add(slog.LevelError, msg) }

func (m *Messages) add(level slog.Level, msg string) {
	m.List = append(m.List, Message{Level: level, Text: msg})
}

// Texts returns the messages reported at level.
func (m *Messages) Texts(level slog.Level) []string {
	var out []string
	for _, msg := range m.List {
		if msg.Level == level {
			out = append(out, msg.Text)
		}
	}
	return out
}

// ChannelReport is the outcome of one bake job.
type ChannelReport struct {
	Kind paintlayers.ChannelKind
	// Name is the expanded save name.
	Name string
	// Image is the baked color image; nil when the job failed.
	Image *paintlayers.Image
	// Alpha is the alpha image kept by the separate policy.
	Alpha *paintlayers.Image
	// Files lists the files written.
	Files []string
	// Err is the error that failed the job or its persistence.
	Err error
	// Warnings holds non-fatal problems such as a missing save path.
	Warnings []error
}

// Report collects the outcome of an export.
type Report struct {
	Channels []ChannelReport
}

// Channel returns the report of kind, or nil.
func (r *Report) Channel(kind paintlayers.ChannelKind) *ChannelReport {
	for i := range r.Channels {
		if r.Channels[i].Kind == kind {
			return &r.Channels[i]
		}
	}
	return nil
}

// Err joins the errors of every channel.
func (r *Report) Err() error {
	var errs []error
	for _, c := range r.Channels {
		if c.Err != nil {
			errs = append(errs, c.Err)
		}
	}
	return errors.Join(errs...)
}

// Files returns every file written, in job order.
func (r *Report) Files() []string {
	var out []string
	for _, c := range r.Channels {
		out = append(out, c.Files...)
	}
	return out
}
