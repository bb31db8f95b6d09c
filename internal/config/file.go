// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML shape for the standalone demo binary. It
// carries the same recognized options as the collector-framework
// Configure calls, plus the ambient logging/export/monitor settings that
// only the standalone binary needs (a real collector host supplies those
// itself).
type FileConfig struct {
	Engine struct {
		DataDir           string `yaml:"data_dir"`
		GlobalInterval    string `yaml:"global_interval"`
		StepSize          int    `yaml:"step_size"`
		HeartBeat         int    `yaml:"heart_beat"`
		RRARows           int    `yaml:"rra_rows"`
		RRATimespan       []int  `yaml:"rra_timespan"`
		XFF               float64 `yaml:"xff"`
		CacheTimeout      int    `yaml:"cache_timeout"`
		CacheFlushTimeout int    `yaml:"cache_flush_timeout"`
	} `yaml:"engine"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`

	Export *ExportConfig `yaml:"export,omitempty"`
	Monitor *MonitorConfig `yaml:"monitor,omitempty"`
}

// ExportConfig configures the optional cold-archive exporter.
type ExportConfig struct {
	Schedule  string `yaml:"schedule"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	RateBytes int64  `yaml:"rate_bytes_per_sec"`
	Codec     string `yaml:"codec"` // "gzip" (default) or "zstd"
}

// MonitorConfig configures the optional disk-capacity monitor.
type MonitorConfig struct {
	LowDiskPercent float64 `yaml:"low_disk_percent"`
}

// LoadFile reads and validates the YAML configuration file at path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := fc.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &fc, nil
}

func (fc *FileConfig) validate() error {
	if fc.Engine.GlobalInterval == "" {
		fc.Engine.GlobalInterval = "10s"
	}
	if _, err := time.ParseDuration(fc.Engine.GlobalInterval); err != nil {
		return fmt.Errorf("engine.global_interval: %w", err)
	}

	if fc.Logging.Level == "" {
		fc.Logging.Level = "info"
	}
	if fc.Logging.Format == "" {
		fc.Logging.Format = "json"
	}

	if fc.Export != nil && fc.Export.Bucket == "" {
		return fmt.Errorf("export.bucket is required when export is configured")
	}
	if fc.Monitor != nil && (fc.Monitor.LowDiskPercent <= 0 || fc.Monitor.LowDiskPercent >= 100) {
		return fmt.Errorf("monitor.low_disk_percent must be between 0 and 100")
	}

	return nil
}

// GlobalInterval parses the configured global sample interval.
func (fc *FileConfig) GlobalInterval() time.Duration {
	d, _ := time.ParseDuration(fc.Engine.GlobalInterval)
	return d
}

// Builder applies this file's engine options to a fresh config.Builder.
func (fc *FileConfig) Builder() (*Builder, error) {
	b := NewBuilder()

	if fc.Engine.DataDir != "" {
		if err := b.Configure("DataDir", fc.Engine.DataDir); err != nil {
			return nil, err
		}
	}
	if fc.Engine.StepSize > 0 {
		if err := b.Configure("StepSize", fmt.Sprint(fc.Engine.StepSize)); err != nil {
			return nil, err
		}
	}
	if fc.Engine.HeartBeat > 0 {
		if err := b.Configure("HeartBeat", fmt.Sprint(fc.Engine.HeartBeat)); err != nil {
			return nil, err
		}
	}
	if fc.Engine.RRARows > 0 {
		if err := b.Configure("RRARows", fmt.Sprint(fc.Engine.RRARows)); err != nil {
			return nil, err
		}
	}
	for _, span := range fc.Engine.RRATimespan {
		if err := b.Configure("RRATimespan", fmt.Sprint(span)); err != nil {
			return nil, err
		}
	}
	if fc.Engine.XFF != 0 {
		if err := b.Configure("XFF", fmt.Sprint(fc.Engine.XFF)); err != nil {
			return nil, err
		}
	}
	if err := b.Configure("CacheTimeout", fmt.Sprint(fc.Engine.CacheTimeout)); err != nil {
		return nil, err
	}
	if fc.Engine.CacheFlushTimeout > 0 {
		if err := b.Configure("CacheFlush", fmt.Sprint(fc.Engine.CacheFlushTimeout)); err != nil {
			return nil, err
		}
	}

	return b, nil
}
