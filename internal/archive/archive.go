// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package archive defines the round-robin archive primitive the writer
// worker drives: Create initializes a new archive file from synthesized
// descriptors, Update appends already-serialized samples in timestamp
// order. The real round-robin archive format is out of scope (spec
// treats it as an opaque collaborator); Store is the seam a real backing
// library would implement, and FileStore is a minimal file-backed
// reference implementation used by the demo binary and the test suite.
package archive

import "github.com/rrdcached/rrdcached/internal/schema"

// Store is the archive primitive the writer worker calls outside any
// lock. Implementations must tolerate concurrent Update calls for
// different paths; the engine guarantees at most one in-flight call per
// path at a time.
type Store interface {
	// Create initializes a new, empty archive at path from desc. Called
	// at most once per path before its first Update, when the path does
	// not yet exist.
	Create(path string, desc schema.Descriptors) error
	// Update appends samples, already in timestamp order, to the archive
	// at path.
	Update(path string, samples []string) error
	// Stat reports whether path exists and, if so, whether it is a
	// regular file. A non-nil error other than "not found" is a
	// filesystem error the caller must not paper over.
	Stat(path string) (exists bool, regular bool, err error)
}
