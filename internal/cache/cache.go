// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package cache is the keyed write-behind buffer: one entry per destination
// archive path, mutated by producer goroutines through Submit and drained
// by the single writer worker through DrainForWriter. The Flusher policy
// (opportunistic, from Submit, and forced, from shutdown) lives alongside
// it as a method, since both operate under the same lock.
package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rrdcached/rrdcached/internal/queue"
	"github.com/rrdcached/rrdcached/internal/rrderrors"
)

// entry is one destination file's buffered, not-yet-written samples.
// Invariants: samples is sorted strictly increasing by sample timestamp;
// lastTS is the timestamp of the last appended sample; firstTS is only
// meaningful while samples is non-empty.
type entry struct {
	samples []string
	firstTS int64
	lastTS  int64
	queued  bool
}

// Cache is the path-keyed buffer mapping. The zero value is not usable;
// construct with New.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	q *queue.Queue

	// cacheTimeoutSeconds is compared against a buffered entry's
	// lastTS-firstTS span, itself measured in sample-timestamp seconds,
	// not wall-clock time.
	cacheTimeoutSeconds int64
	// cacheFlushTimeoutSeconds gates opportunistic flush passes on
	// wall-clock elapsed time since the last pass.
	cacheFlushTimeoutSeconds int64
	lastFlush                time.Time

	logger *slog.Logger
}

// New creates an empty Cache backed by q. cacheTimeoutSeconds of 0
// disables coalescing: every submit enqueues its path immediately.
func New(q *queue.Queue, cacheTimeoutSeconds, cacheFlushTimeoutSeconds int64, logger *slog.Logger) *Cache {
	return &Cache{
		entries:                  make(map[string]*entry),
		q:                        q,
		cacheTimeoutSeconds:      cacheTimeoutSeconds,
		cacheFlushTimeoutSeconds: cacheFlushTimeoutSeconds,
		lastFlush:                time.Now(),
		logger:                   logger,
	}
}

// Submit appends serialized, timestamped ts, to path's buffer. Lock order:
// Submit holds the cache lock for its whole duration and, if the buffer
// crosses the cache-timeout threshold, acquires the queue lock while still
// holding it (cache lock first, then queue lock — never the reverse).
func (c *Cache) Submit(path, serialized string, ts int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[path]
	var lastTS int64
	if exists {
		lastTS = e.lastTS
	}

	if lastTS >= ts {
		return fmt.Errorf("%w: path=%s last_ts=%d sample_ts=%d", rrderrors.ErrNonMonotonic, path, lastTS, ts)
	}

	if !exists {
		e = &entry{}
	}

	e.samples = append(e.samples, serialized)
	if len(e.samples) == 1 {
		e.firstTS = ts
	}
	e.lastTS = ts

	if !exists {
		c.entries[path] = e
	}

	if e.lastTS-e.firstTS >= c.cacheTimeoutSeconds && !e.queued {
		c.q.Enqueue(path)
		e.queued = true
	} else if e.queued && c.logger != nil {
		c.logger.Debug("path already queued", "path", path)
	}

	if c.cacheTimeoutSeconds > 0 && time.Since(c.lastFlush) > time.Duration(c.cacheFlushTimeoutSeconds)*time.Second {
		c.flushLocked(c.cacheFlushTimeoutSeconds)
	}

	return nil
}

// DrainForWriter atomically swaps out path's buffered samples for the
// writer worker, clearing the entry's queued flag. Appends made by
// concurrent Submit calls after this returns land in the entry's next
// batch, never in the one just drained.
func (c *Cache) DrainForWriter(path string) (samples []string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		return nil, 0
	}

	samples = e.samples
	e.samples = nil
	e.queued = false

	return samples, len(samples)
}

// Flush runs a forced flush pass, as shutdown requires: every non-empty
// entry is queued regardless of its age.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushLocked(-1)
}

// flushLocked must be called with c.mu held. timeoutSeconds of -1 is the
// shutdown sentinel: every non-empty, not-already-queued entry is queued
// regardless of age.
func (c *Cache) flushLocked(timeoutSeconds int64) {
	now := time.Now().Unix()
	forced := timeoutSeconds < 0

	var evict []string
	for path, e := range c.entries {
		if e.queued {
			continue
		}
		if !forced && now-e.firstTS < timeoutSeconds {
			continue
		}
		if len(e.samples) > 0 {
			c.q.Enqueue(path)
			e.queued = true
		} else {
			evict = append(evict, path)
		}
	}

	for _, path := range evict {
		delete(c.entries, path)
	}

	c.lastFlush = time.Now()

	if c.logger != nil && (len(evict) > 0 || forced) {
		c.logger.Debug("cache flush pass", "evicted", len(evict), "forced", forced, "entries", len(c.entries))
	}
}

// DestroyAll releases every remaining entry and the mapping itself. Called
// by the writer worker once the queue has drained following shutdown.
func (c *Cache) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
}

// Len reports the number of distinct buffered paths. Intended for
// diagnostics; the count can be stale the instant it's read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
