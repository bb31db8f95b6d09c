// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package serialize renders a sample as a single colon-delimited record
// beginning with its epoch timestamp, the wire format the writer worker
// eventually hands to the archive update primitive.
package serialize

import (
	"fmt"
	"strings"

	"github.com/rrdcached/rrdcached/internal/rrderrors"
	"github.com/rrdcached/rrdcached/internal/schema"
)

// maxRecordLen bounds the rendered record. The original plugin uses a
// 512-byte stack buffer for the same purpose.
const maxRecordLen = 512

// Value is one field's reading. Only one of Counter/Gauge is read,
// selected by the corresponding schema.Field's Kind.
type Value struct {
	Counter uint64
	Gauge   float64
}

// Sample is one timestamped, multi-field reading.
type Sample struct {
	Timestamp int64
	Values    []Value
}

// Serialize renders ts and one ":"-joined field per ds.Fields, COUNTER
// fields as "%llu" and GAUGE fields as "%lf". A values/fields length
// mismatch or a field outside {COUNTER, GAUGE} is a caller contract
// violation — the only caller, engine.Write, always builds matching
// pairs from a synthesized schema — but per spec.md §7 no error
// propagates out of the core as a panic, so both are reported as
// ordinary wrapped errors instead.
func Serialize(ds schema.DataSet, sample Sample) (string, error) {
	if len(sample.Values) != len(ds.Fields) {
		return "", fmt.Errorf("%w: serialize: %d values for %d fields", rrderrors.ErrConfiguration, len(sample.Values), len(ds.Fields))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d", sample.Timestamp)

	for i, f := range ds.Fields {
		switch f.Kind {
		case schema.Counter:
			fmt.Fprintf(&b, ":%d", sample.Values[i].Counter)
		case schema.Gauge:
			fmt.Fprintf(&b, ":%f", sample.Values[i].Gauge)
		default:
			return "", fmt.Errorf("%w: serialize: field %q has unknown kind %d", rrderrors.ErrConfiguration, f.Name, f.Kind)
		}

		if b.Len() > maxRecordLen {
			return "", fmt.Errorf("%w: record exceeds %d bytes", rrderrors.ErrEncodingOverflow, maxRecordLen)
		}
	}

	if b.Len() > maxRecordLen {
		return "", fmt.Errorf("%w: record exceeds %d bytes", rrderrors.ErrEncodingOverflow, maxRecordLen)
	}

	return b.String(), nil
}
