// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config builds the engine's immutable configuration snapshot from
// the collector framework's key/value Configure calls (spec.md §6), and
// applies the global-interval defaults and cache-timeout clamps the
// original plugin computes at init.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rrdcached/rrdcached/internal/rrderrors"
	"github.com/rrdcached/rrdcached/internal/schema"
)

// defaultRRATimespans is used when no RRATimespan option is configured.
var defaultRRATimespans = []int{3600, 86400, 604800, 2678400, 31622400}

// Config is the immutable sizing/policy snapshot the engine is built
// from. Build one with a Builder, then Finalize.
type Config struct {
	DataDir string

	StepSizeSeconds  int64
	HeartBeatSeconds int64
	RRARows          int
	RRATimespans     []int
	XFF              float64

	CacheTimeoutSeconds      int64
	CacheFlushTimeoutSeconds int64
}

// Sizing projects the schema-relevant fields of Config for the schema
// synthesizer, which has no dependency on configuration parsing.
func (c Config) Sizing() schema.Sizing {
	return schema.Sizing{
		StepSizeSeconds: int(c.StepSizeSeconds),
		HeartBeat:       int(c.HeartBeatSeconds),
		RRARows:         c.RRARows,
		RRATimespans:    c.RRATimespans,
		XFF:             c.XFF,
	}
}

// Builder accumulates Configure(key, value) calls before Finalize produces
// an immutable Config. The zero value is ready to use.
type Builder struct {
	dataDir    string
	dataDirSet bool

	stepSize    int64
	stepSizeSet bool

	heartBeat    int64
	heartBeatSet bool

	rraRows    int
	rraRowsSet bool

	rraTimespans []int

	xff    float64
	xffSet bool

	cacheTimeout    int64
	cacheTimeoutSet bool

	cacheFlush    int64
	cacheFlushSet bool
}

// NewBuilder returns a ready-to-use Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Configure applies one recognized key/value option, case-insensitively.
// Unknown keys and invalid values both fail with ErrConfiguration.
// RRATimespan is repeatable: each call's tokens accumulate.
func (b *Builder) Configure(key, value string) error {
	switch strings.ToLower(key) {
	case "datadir":
		dir := strings.TrimRight(value, "/")
		b.dataDir = dir
		b.dataDirSet = true

	case "stepsize":
		v, err := parsePositiveInt(value)
		if err != nil {
			return fmt.Errorf("%w: StepSize: %v", rrderrors.ErrConfiguration, err)
		}
		b.stepSize, b.stepSizeSet = v, true

	case "heartbeat":
		v, err := parsePositiveInt(value)
		if err != nil {
			return fmt.Errorf("%w: HeartBeat: %v", rrderrors.ErrConfiguration, err)
		}
		b.heartBeat, b.heartBeatSet = v, true

	case "rrarows":
		v, err := parsePositiveInt(value)
		if err != nil {
			return fmt.Errorf("%w: RRARows: %v", rrderrors.ErrConfiguration, err)
		}
		b.rraRows, b.rraRowsSet = int(v), true

	case "rratimespan":
		for _, tok := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			n, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				return fmt.Errorf("%w: RRATimespan: %v", rrderrors.ErrConfiguration, err)
			}
			if n == 0 {
				continue
			}
			b.rraTimespans = append(b.rraTimespans, n)
		}

	case "xff":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: XFF: %v", rrderrors.ErrConfiguration, err)
		}
		if f < 0.0 || f >= 1.0 {
			return fmt.Errorf("%w: XFF must be in the range 0 to 1 (exclusive), got %v", rrderrors.ErrConfiguration, f)
		}
		b.xff, b.xffSet = f, true

	case "cachetimeout":
		v, err := parseNonNegativeInt(value)
		if err != nil {
			return fmt.Errorf("%w: CacheTimeout: %v", rrderrors.ErrConfiguration, err)
		}
		b.cacheTimeout, b.cacheTimeoutSet = v, true

	case "cacheflush":
		v, err := parseNonNegativeInt(value)
		if err != nil {
			return fmt.Errorf("%w: CacheFlush: %v", rrderrors.ErrConfiguration, err)
		}
		b.cacheFlush, b.cacheFlushSet = v, true

	default:
		return fmt.Errorf("%w: unknown option %q", rrderrors.ErrConfiguration, key)
	}

	return nil
}

// Finalize applies the defaults and clamps spec.md §3 and the original
// plugin's rrd_init describe, given the collector's global sample
// interval, and returns the immutable snapshot.
func (b *Builder) Finalize(globalInterval time.Duration) (Config, error) {
	var cfg Config
	cfg.DataDir = b.dataDir

	stepSize := b.stepSize
	if !b.stepSizeSet || stepSize <= 0 {
		stepSize = int64(globalInterval.Seconds())
	}
	if stepSize <= 0 {
		return Config{}, fmt.Errorf("%w: step_size must be positive (no global interval to default from)", rrderrors.ErrConfiguration)
	}
	cfg.StepSizeSeconds = stepSize

	heartBeat := b.heartBeat
	if !b.heartBeatSet || heartBeat <= 0 {
		heartBeat = 2 * int64(globalInterval.Seconds())
	}
	if heartBeat <= 0 {
		return Config{}, fmt.Errorf("%w: heartbeat must be positive (no global interval to default from)", rrderrors.ErrConfiguration)
	}
	cfg.HeartBeatSeconds = heartBeat

	rraRows := b.rraRows
	if !b.rraRowsSet || rraRows <= 0 {
		rraRows = 1200
	}
	cfg.RRARows = rraRows

	timespans := b.rraTimespans
	if len(timespans) == 0 {
		timespans = append([]int(nil), defaultRRATimespans...)
	}
	cfg.RRATimespans = timespans

	xff := b.xff
	if !b.xffSet {
		xff = 0.1
	}
	cfg.XFF = xff

	cacheTimeout := b.cacheTimeout
	cacheFlush := b.cacheFlush

	// The original plugin clamps a CacheTimeout of 0 or 1 down to 0 and
	// disables flushing entirely with it, rather than just treating "too
	// small to matter" as ordinary zero.
	if cacheTimeout < 2 {
		cacheTimeout = 0
		cacheFlush = 0
	} else if !b.cacheFlushSet || cacheFlush < cacheTimeout {
		cacheFlush = 10 * cacheTimeout
	}
	cfg.CacheTimeoutSeconds = cacheTimeout
	cfg.CacheFlushTimeoutSeconds = cacheFlush

	return cfg, nil
}

func parsePositiveInt(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be greater than 0, got %d", v)
	}
	return v, nil
}

func parseNonNegativeInt(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("must be greater than or equal to 0, got %d", v)
	}
	return v, nil
}
