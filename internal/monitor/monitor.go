// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package monitor periodically samples free space under the archive data
// directory and reports a low-disk condition to the engine. It does not
// gate writes — the engine has no back-pressure to producers — it only
// feeds the health status surface a host can poll or export.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/rrdcached/rrdcached/internal/logging"
	"github.com/shirou/gopsutil/v3/disk"
)

// reporter is the subset of engine.Engine the monitor drives.
type reporter interface {
	SetDiskLow(low bool)
}

// Snapshot is the latest collected disk usage sample.
type Snapshot struct {
	UsedPercent float64
	Low         bool
}

// DiskMonitor periodically samples free space under a data directory.
type DiskMonitor struct {
	path           string
	lowThreshold   float64
	pollInterval   time.Duration
	logger         *slog.Logger
	target         reporter

	mu       sync.RWMutex
	snapshot Snapshot

	close chan struct{}
	wg    sync.WaitGroup
}

// New creates a DiskMonitor watching path, reporting low-disk once used
// space crosses lowThresholdPercent. It does not start collecting until
// Start is called.
func New(path string, lowThresholdPercent float64, pollInterval time.Duration, target reporter, logger *slog.Logger) *DiskMonitor {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &DiskMonitor{
		path:         path,
		lowThreshold: lowThresholdPercent,
		pollInterval: pollInterval,
		logger:       logging.ForComponent(logger, logging.ComponentMonitor),
		target:       target,
		close:        make(chan struct{}),
	}
}

// Start begins periodic collection in its own goroutine.
func (m *DiskMonitor) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop stops collection and waits for the goroutine to exit.
func (m *DiskMonitor) Stop() {
	close(m.close)
	m.wg.Wait()
}

// Snapshot returns the most recently collected sample.
func (m *DiskMonitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *DiskMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.collect()

	for {
		select {
		case <-m.close:
			return
		case <-ticker.C:
			m.collect()
		}
	}
}

func (m *DiskMonitor) collect() {
	usage, err := disk.Usage(m.path)
	if err != nil {
		m.logger.Warn("failed to collect disk usage", "path", m.path, "error", err)
		return
	}

	snap := Snapshot{
		UsedPercent: usage.UsedPercent,
		Low:         usage.UsedPercent >= m.lowThreshold,
	}

	m.mu.Lock()
	m.snapshot = snap
	m.mu.Unlock()

	m.target.SetDiskLow(snap.Low)

	if snap.Low {
		m.logger.Warn("data directory low on free space", "path", m.path, "used_percent", snap.UsedPercent)
	}
}
