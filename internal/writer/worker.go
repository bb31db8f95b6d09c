// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package writer runs the single background worker that drains the queue,
// snapshots the corresponding cache buffer under the cache lock, and
// invokes the archive update primitive outside any lock. There is
// exactly one writer worker per engine: a second would violate the
// serial-update assumption the archive primitive makes for a given path.
package writer

import (
	"log/slog"

	"github.com/rrdcached/rrdcached/internal/archive"
	"github.com/rrdcached/rrdcached/internal/cache"
	"github.com/rrdcached/rrdcached/internal/queue"
)

// Worker is the single writer goroutine. Construct with New and start it
// with Run (typically `go w.Run()`); Wait blocks until the worker has
// observed shutdown and torn down the cache.
type Worker struct {
	q     *queue.Queue
	cache *cache.Cache
	store archive.Store
	logger *slog.Logger

	done chan struct{}
}

// New creates a Worker over q, cache and store. Run must be started
// exactly once.
func New(q *queue.Queue, c *cache.Cache, store archive.Store, logger *slog.Logger) *Worker {
	return &Worker{
		q:      q,
		cache:  c,
		store:  store,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run is the worker's main loop. It returns once the queue has been
// signaled for shutdown and fully drained; callers typically run it in
// its own goroutine and synchronize on Wait.
func (w *Worker) Run() {
	for {
		path, ok := w.q.DequeueBlocking()
		if !ok {
			break
		}

		samples, n := w.cache.DrainForWriter(path)
		if n >= 1 {
			if err := w.store.Update(path, samples); err != nil {
				w.logger.Warn("archive update failed, samples dropped",
					"path", path, "samples", n, "error", err)
			}
		}
	}

	w.cache.DestroyAll()
	close(w.done)
}

// Wait blocks until Run has returned and the cache has been torn down.
// This is shutdown's synchronization point: shutdown is complete once
// Wait returns.
func (w *Worker) Wait() {
	<-w.done
}
