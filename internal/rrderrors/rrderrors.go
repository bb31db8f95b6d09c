// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package rrderrors holds the sentinel errors shared across the engine's
// components, per the error taxonomy the engine is built against: a sample
// or a configuration value is rejected locally and never crashes the host.
package rrderrors

import "errors"

var (
	// ErrConfiguration marks an invalid or unknown configuration option.
	ErrConfiguration = errors.New("rrdcached: configuration error")

	// ErrNonMonotonic marks a sample whose timestamp is not strictly
	// greater than the destination buffer's last accepted timestamp.
	ErrNonMonotonic = errors.New("rrdcached: sample timestamp not monotonically increasing")

	// ErrPathTooLong marks a synthesized path exceeding the implementation's
	// path buffer.
	ErrPathTooLong = errors.New("rrdcached: synthesized path too long")

	// ErrEncodingOverflow marks a serialized sample exceeding the
	// implementation's record buffer.
	ErrEncodingOverflow = errors.New("rrdcached: serialized sample too long")

	// ErrFilesystem marks a stat failure other than "not found", or a
	// non-regular file found at a destination path.
	ErrFilesystem = errors.New("rrdcached: filesystem error")

	// ErrArchiveCreate marks a refusal by the archive primitive to
	// initialize a new file.
	ErrArchiveCreate = errors.New("rrdcached: archive create failed")

	// ErrArchiveUpdate marks a refusal by the archive primitive to accept
	// an update; the drained samples carried by that call are lost.
	ErrArchiveUpdate = errors.New("rrdcached: archive update failed")
)
