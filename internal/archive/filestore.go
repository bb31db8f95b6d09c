// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package archive

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rrdcached/rrdcached/internal/pathsynth"
	"github.com/rrdcached/rrdcached/internal/rrderrors"
	"github.com/rrdcached/rrdcached/internal/schema"
)

// FileStore is a minimal, file-backed Store: Create writes the DS and RRA
// descriptors as a header, one per line; Update appends serialized sample
// records below it. It does not implement round-robin consolidation —
// that library is explicitly out of scope — but gives the demo binary and
// the test suite something concrete to exercise the archive seam against.
type FileStore struct{}

// NewFileStore returns a ready-to-use FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Create creates path's parent directory chain if needed, then writes the
// descriptor header. Fails if path already exists.
func (s *FileStore) Create(path string, desc schema.Descriptors) error {
	if err := pathsynth.EnsureDir(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", rrderrors.ErrArchiveCreate, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, d := range desc.DS {
		fmt.Fprintln(w, d)
	}
	for _, d := range desc.RRA {
		fmt.Fprintln(w, d)
	}
	return w.Flush()
}

// Update appends samples, in order, to the archive at path. A no-op for
// an empty batch.
func (s *FileStore) Update(path string, samples []string) error {
	if len(samples) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", rrderrors.ErrArchiveUpdate, path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, sample := range samples {
		fmt.Fprintln(w, sample)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: writing %s: %v", rrderrors.ErrArchiveUpdate, path, err)
	}
	return nil
}

// Stat reports whether path exists and, if so, whether it's a regular
// file.
func (s *FileStore) Stat(path string) (exists bool, regular bool, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("%w: stat %s: %v", rrderrors.ErrFilesystem, path, statErr)
	}
	return true, info.Mode().IsRegular(), nil
}
