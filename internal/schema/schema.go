// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package schema synthesizes archive-creation arguments from a data set
// descriptor and the engine's sizing configuration: one data-source
// descriptor per field plus a set of round-robin-archive descriptors
// covering the configured retention windows.
package schema

import (
	"fmt"
	"math"
	"sync"

	"github.com/rrdcached/rrdcached/internal/rrderrors"
)

// FieldKind is the type of a data-set field.
type FieldKind int

const (
	// Counter fields are monotonically increasing; the archive primitive
	// derives a per-step rate from successive values.
	Counter FieldKind = iota
	// Gauge fields are stored as-is.
	Gauge
)

func (k FieldKind) String() string {
	switch k {
	case Counter:
		return "COUNTER"
	case Gauge:
		return "GAUGE"
	default:
		return "UNKNOWN"
	}
}

// Field describes one data-source within a data set.
type Field struct {
	Name string
	Kind FieldKind
	// Min and Max bound accepted values. Use math.NaN() for "unbounded".
	Min float64
	Max float64
}

// DataSet is a metric's schema: its type name and ordered fields.
type DataSet struct {
	Type   string
	Fields []Field
}

// Sizing is the subset of engine configuration the synthesizer depends on.
// It mirrors config.Config's sizing fields without importing the config
// package, keeping schema a pure leaf with no dependency on configuration
// parsing.
type Sizing struct {
	StepSizeSeconds int
	HeartBeat       int
	RRARows         int
	RRATimespans    []int // seconds, in configured order
	XFF             float64
}

// rraAggregations are consolidated for every retention window, in this
// fixed order, matching the original plugin's rra_types table.
var rraAggregations = [...]string{"AVERAGE", "MIN", "MAX"}

// Descriptors holds the synthesized archive-creation arguments.
type Descriptors struct {
	DS  []string
	RRA []string
}

// memo caches synthesized RRA descriptor sets by sizing configuration, since
// they depend only on immutable configuration and not on any particular
// data set (spec: "the result may be memoized for the process lifetime").
type memo struct {
	mu    sync.Mutex
	cache map[string][]string
}

var rraMemo = &memo{cache: make(map[string][]string)}

// Synthesize produces the DS and RRA descriptors for ds under the given
// sizing configuration. The result is deterministic: byte-equal output for
// byte-equal inputs.
func Synthesize(ds DataSet, sizing Sizing) (Descriptors, error) {
	if sizing.StepSizeSeconds <= 0 || sizing.RRARows <= 0 {
		return Descriptors{}, fmt.Errorf("%w: step_size and rra_rows must be positive", rrderrors.ErrConfiguration)
	}

	dsDefs, err := dataSourceDefs(ds, sizing.HeartBeat)
	if err != nil {
		return Descriptors{}, err
	}

	rraDefs := archiveDefs(sizing)

	return Descriptors{DS: dsDefs, RRA: rraDefs}, nil
}

func dataSourceDefs(ds DataSet, heartbeat int) ([]string, error) {
	defs := make([]string, 0, len(ds.Fields))
	for _, f := range ds.Fields {
		if f.Kind != Counter && f.Kind != Gauge {
			return nil, fmt.Errorf("rrdcached: schema: field %q has unknown kind %d", f.Name, f.Kind)
		}
		defs = append(defs, fmt.Sprintf("DS:%s:%s:%d:%s:%s",
			f.Name, f.Kind, heartbeat, boundStr(f.Min), boundStr(f.Max)))
	}
	return defs, nil
}

func boundStr(v float64) string {
	if math.IsNaN(v) {
		return "U"
	}
	return fmt.Sprintf("%f", v)
}

func archiveDefs(sizing Sizing) []string {
	key := memoKey(sizing)

	rraMemo.mu.Lock()
	if cached, ok := rraMemo.cache[key]; ok {
		rraMemo.mu.Unlock()
		return cached
	}
	rraMemo.mu.Unlock()

	timespans := sizing.RRATimespans

	defs := make([]string, 0, len(timespans)*len(rraAggregations))
	cdpLen := 0
	for _, span := range timespans {
		if span/sizing.StepSizeSeconds < sizing.RRARows {
			continue
		}

		if cdpLen == 0 {
			cdpLen = 1
		} else {
			cdpLen = int(math.Floor(float64(span) / float64(sizing.RRARows*sizing.StepSizeSeconds)))
		}
		cdpNum := int(math.Ceil(float64(span) / float64(cdpLen*sizing.StepSizeSeconds)))

		for _, agg := range rraAggregations {
			defs = append(defs, fmt.Sprintf("RRA:%s:%.1f:%d:%d", agg, sizing.XFF, cdpLen, cdpNum))
		}
	}

	rraMemo.mu.Lock()
	rraMemo.cache[key] = defs
	rraMemo.mu.Unlock()

	return defs
}

func memoKey(sizing Sizing) string {
	key := fmt.Sprintf("%d|%d|%.6f", sizing.StepSizeSeconds, sizing.RRARows, sizing.XFF)
	for _, span := range sizing.RRATimespans {
		key += fmt.Sprintf("|%d", span)
	}
	return key
}
