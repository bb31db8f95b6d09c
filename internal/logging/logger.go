// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package logging builds the structured logger every rrdcached subsystem
// logs through, and names the subsystems (Component) so records from a
// component logger can be filtered to the subsystem they came from.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Component names the rrdcached subsystem emitting a log record. It is
// attached to every record a component logger produces, so a single
// process's cache/writer/export/monitor output can be told apart without
// per-package ad hoc attribute keys.
type Component string

const (
	ComponentCache   Component = "cache"
	ComponentQueue   Component = "queue"
	ComponentWriter  Component = "writer"
	ComponentArchive Component = "archive"
	ComponentEngine  Component = "engine"
	ComponentMonitor Component = "disk_monitor"
	ComponentExport  Component = "export"
)

// NewLogger builds the base slog.Logger every component logger (see
// ForComponent) is derived from, configured with the given level, format
// and output. Supported formats: "json" (default) and "text". Supported
// levels: "debug", "info" (default), "warn", "error". When filePath is
// non-empty, logs go to stdout and the file (io.MultiWriter); the returned
// io.Closer must be closed on shutdown. If filePath is empty the Closer is
// a no-op. Every record the returned logger emits carries service=
// "rrdcached", so output from this engine is identifiable even when
// embedded in a host process's own log stream.
func NewLogger(level, format, filePath string) (*slog.Logger, io.Closer) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var w io.Writer = os.Stdout
	var closer io.Closer = io.NopCloser(strings.NewReader(""))

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: could not open log file %q: %v (logging to stdout only)\n", filePath, err)
		} else {
			w = io.MultiWriter(os.Stdout, f)
			closer = f
		}
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "rrdcached"), closer
}

// ForComponent scopes base to one rrdcached subsystem, attaching a
// "component" attribute to every record it emits. engine.New uses it for
// the cache and writer loggers it hands out; monitor.New and export.New
// scope their own loggers with it. The engine's own records go through the
// unscoped base logger.
func ForComponent(base *slog.Logger, component Component) *slog.Logger {
	return base.With("component", string(component))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
