// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pathsynth maps a sample's identity to a deterministic archive
// file path, and creates the directory chain a newly-synthesized path
// needs before its first write.
package pathsynth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rrdcached/rrdcached/internal/rrderrors"
)

// maxPathLen bounds the synthesized path length. 4096 matches the common
// PATH_MAX on Linux, the implementation's configured path buffer.
const maxPathLen = 4096

// Identity is a sample's destination identity.
type Identity struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
}

// Synthesize renders dataDir/host/plugin[-plugin_instance]/type[-type_instance].rrd.
// The plugin_instance and type_instance suffixes are present iff the
// corresponding string is non-empty. Identical identities always render to
// byte-equal paths.
func Synthesize(dataDir string, id Identity) (string, error) {
	plugin := id.Plugin
	if id.PluginInstance != "" {
		plugin = fmt.Sprintf("%s-%s", id.Plugin, id.PluginInstance)
	}

	typ := id.Type
	if id.TypeInstance != "" {
		typ = fmt.Sprintf("%s-%s", id.Type, id.TypeInstance)
	}

	rel := filepath.Join(id.Host, plugin, typ+".rrd")

	var full string
	if dataDir != "" {
		full = filepath.Join(dataDir, rel)
	} else {
		full = rel
	}

	if len(full) > maxPathLen {
		return "", fmt.Errorf("%w: synthesized path is %d bytes, limit is %d", rrderrors.ErrPathTooLong, len(full), maxPathLen)
	}

	return full, nil
}

// EnsureDir creates the parent directory chain of path, as needed, before
// the first write to a newly-synthesized path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory %s: %v", rrderrors.ErrFilesystem, dir, err)
	}
	return nil
}
