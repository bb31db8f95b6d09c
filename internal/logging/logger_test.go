// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, closer := NewLogger("info", "json", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_TextFormat(t *testing.T) {
	logger, closer := NewLogger("debug", "text", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_DefaultFormat(t *testing.T) {
	logger, closer := NewLogger("info", "unknown", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLogger_AllLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "warning", "error", "unknown"}
	for _, level := range levels {
		logger, closer := NewLogger(level, "json", "")
		defer closer.Close()
		if logger == nil {
			t.Errorf("expected non-nil logger for level %q", level)
		}
	}
}

func TestNewLogger_WithFileOutput(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "test.log")

	logger, closer := NewLogger("info", "json", logFile)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Info("test message", "key", "value")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "test message") {
		t.Errorf("expected log file to contain 'test message', got: %s", content)
	}
	if !strings.Contains(content, "key") {
		t.Errorf("expected log file to contain 'key', got: %s", content)
	}
}

func TestNewLogger_WithFileOutput_InvalidPath(t *testing.T) {
	logger, closer := NewLogger("info", "json", "/nonexistent/dir/test.log")
	defer closer.Close()

	if logger == nil {
		t.Fatal("expected non-nil logger even with invalid file path")
	}

	logger.Info("still works")
}

func TestNewLogger_CarriesServiceAttribute(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "service.log")

	logger, closer := NewLogger("info", "json", logFile)
	logger.Info("hello")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"service":"rrdcached"`) {
		t.Errorf("expected every record to carry service=rrdcached, got: %s", data)
	}
}

func TestForComponent_AttachesComponentAttribute(t *testing.T) {
	cases := []struct {
		component Component
		want      string
	}{
		{ComponentCache, "cache"},
		{ComponentQueue, "queue"},
		{ComponentWriter, "writer"},
		{ComponentArchive, "archive"},
		{ComponentEngine, "engine"},
		{ComponentMonitor, "disk_monitor"},
		{ComponentExport, "export"},
	}

	for _, tc := range cases {
		dir := t.TempDir()
		logFile := filepath.Join(dir, "component.log")

		base, closer := NewLogger("info", "json", logFile)
		scoped := ForComponent(base, tc.component)
		scoped.Info("scoped record")
		closer.Close()

		data, err := os.ReadFile(logFile)
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}
		content := string(data)
		if !strings.Contains(content, `"component":"`+tc.want+`"`) {
			t.Errorf("component %v: expected record to carry component=%q, got: %s", tc.component, tc.want, content)
		}
		if !strings.Contains(content, `"service":"rrdcached"`) {
			t.Errorf("component %v: expected scoped logger to retain service=rrdcached, got: %s", tc.component, content)
		}
	}
}

func TestForComponent_DoesNotMutateBaseLogger(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "base.log")

	base, closer := NewLogger("info", "json", logFile)
	_ = ForComponent(base, ComponentWriter)
	base.Info("unscoped record")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), `"component"`) {
		t.Errorf("expected base logger to stay unscoped after deriving a component logger, got: %s", data)
	}
}
