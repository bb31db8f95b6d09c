// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rrdcached.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadFile_MinimalDefaults(t *testing.T) {
	path := writeTestConfig(t, `
engine:
  data_dir: /var/lib/rrdcached
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if fc.GlobalInterval() != 10*time.Second {
		t.Errorf("expected default global_interval of 10s, got %v", fc.GlobalInterval())
	}
	if fc.Logging.Level != "info" || fc.Logging.Format != "json" {
		t.Errorf("expected default logging level/format, got %q/%q", fc.Logging.Level, fc.Logging.Format)
	}
}

func TestLoadFile_InvalidGlobalIntervalFails(t *testing.T) {
	path := writeTestConfig(t, `
engine:
  data_dir: /data
  global_interval: "not-a-duration"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for invalid global_interval")
	}
}

func TestLoadFile_ExportRequiresBucket(t *testing.T) {
	path := writeTestConfig(t, `
engine:
  data_dir: /data
export:
  schedule: "0 * * * *"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for export block missing bucket")
	}
}

func TestLoadFile_MonitorRequiresValidPercent(t *testing.T) {
	path := writeTestConfig(t, `
engine:
  data_dir: /data
monitor:
  low_disk_percent: 150
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for out-of-range low_disk_percent")
	}
}

func TestFileConfig_BuilderTranslatesEngineOptions(t *testing.T) {
	path := writeTestConfig(t, `
engine:
  data_dir: /data
  step_size: 15
  heart_beat: 30
  rra_rows: 600
  rra_timespan: [3600, 86400]
  xff: 0.3
  cache_timeout: 60
  cache_flush_timeout: 600
`)

	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	b, err := fc.Builder()
	if err != nil {
		t.Fatalf("Builder: %v", err)
	}

	cfg, err := b.Finalize(fc.GlobalInterval())
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.DataDir != "/data" {
		t.Errorf("got DataDir=%q", cfg.DataDir)
	}
	if cfg.StepSizeSeconds != 15 {
		t.Errorf("got StepSizeSeconds=%d", cfg.StepSizeSeconds)
	}
	if cfg.HeartBeatSeconds != 30 {
		t.Errorf("got HeartBeatSeconds=%d", cfg.HeartBeatSeconds)
	}
	if cfg.RRARows != 600 {
		t.Errorf("got RRARows=%d", cfg.RRARows)
	}
	if len(cfg.RRATimespans) != 2 {
		t.Errorf("got RRATimespans=%v", cfg.RRATimespans)
	}
	if cfg.XFF != 0.3 {
		t.Errorf("got XFF=%v", cfg.XFF)
	}
	if cfg.CacheTimeoutSeconds != 60 {
		t.Errorf("got CacheTimeoutSeconds=%d", cfg.CacheTimeoutSeconds)
	}
	if cfg.CacheFlushTimeoutSeconds != 600 {
		t.Errorf("got CacheFlushTimeoutSeconds=%d", cfg.CacheFlushTimeoutSeconds)
	}
}
