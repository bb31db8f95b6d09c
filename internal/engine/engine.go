// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package engine wires the Cache, Queue and Writer Worker into the public
// write entrypoint and lifecycle (Init/Write/Shutdown) a hosting collector
// framework would call, per spec.md §4.8 and §5.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rrdcached/rrdcached/internal/archive"
	"github.com/rrdcached/rrdcached/internal/cache"
	"github.com/rrdcached/rrdcached/internal/config"
	"github.com/rrdcached/rrdcached/internal/logging"
	"github.com/rrdcached/rrdcached/internal/pathsynth"
	"github.com/rrdcached/rrdcached/internal/queue"
	"github.com/rrdcached/rrdcached/internal/rrderrors"
	"github.com/rrdcached/rrdcached/internal/schema"
	"github.com/rrdcached/rrdcached/internal/serialize"
	"github.com/rrdcached/rrdcached/internal/writer"
)

// Status is a diagnostic snapshot of engine health. It carries no cached
// sample data — the engine has no query/read path.
type Status struct {
	QueueDepth   int
	CacheEntries int
	DiskLow      bool
}

// Engine owns the Cache, Queue and Writer Worker for one configuration
// snapshot, and exposes the four operations a hosting collector wires to
// its config/init/write/shutdown callbacks.
type Engine struct {
	cfg    config.Config
	store  archive.Store
	logger *slog.Logger

	q      *queue.Queue
	c      *cache.Cache
	worker *writer.Worker

	diskLow atomic.Bool
}

// New constructs an Engine from a finalized configuration and an archive
// backend. Init must be called once before the first Write.
func New(cfg config.Config, store archive.Store, logger *slog.Logger) *Engine {
	q := queue.New()
	c := cache.New(q, cfg.CacheTimeoutSeconds, cfg.CacheFlushTimeoutSeconds, logging.ForComponent(logger, logging.ComponentCache))
	w := writer.New(q, c, store, logging.ForComponent(logger, logging.ComponentWriter))

	return &Engine{
		cfg:    cfg,
		store:  store,
		logger: logger,
		q:      q,
		c:      c,
		worker: w,
	}
}

// Init starts the single writer worker goroutine. Call once.
func (e *Engine) Init() {
	e.logger.Info("engine initialized",
		"data_dir", e.cfg.DataDir,
		"step_size", e.cfg.StepSizeSeconds,
		"heart_beat", e.cfg.HeartBeatSeconds,
		"rra_rows", e.cfg.RRARows,
		"cache_timeout", e.cfg.CacheTimeoutSeconds,
		"cache_flush_timeout", e.cfg.CacheFlushTimeoutSeconds,
	)
	go e.worker.Run()
}

// Write is the public write entrypoint (spec.md §4.8): synthesize the
// destination path, create the archive file on first write, serialize the
// sample, and submit it to the cache.
func (e *Engine) Write(ds schema.DataSet, id pathsynth.Identity, sample serialize.Sample) error {
	path, err := pathsynth.Synthesize(e.cfg.DataDir, id)
	if err != nil {
		return err
	}

	exists, regular, err := e.store.Stat(path)
	if err != nil {
		return err
	}

	if !exists {
		desc, err := schema.Synthesize(ds, e.cfg.Sizing())
		if err != nil {
			return err
		}
		if err := e.store.Create(path, desc); err != nil {
			return err
		}
	} else if !regular {
		return fmt.Errorf("%w: %s is not a regular file", rrderrors.ErrFilesystem, path)
	}

	serialized, err := serialize.Serialize(ds, sample)
	if err != nil {
		return err
	}

	if err := e.c.Submit(path, serialized, sample.Timestamp); err != nil {
		e.logger.Warn("submit rejected", "path", path, "error", err)
		return err
	}

	return nil
}

// Shutdown forces every buffered entry into the queue, signals the worker
// to drain and stop, and waits for it (or ctx) to finish. Join on the
// worker is shutdown's synchronization point.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.logger.Info("engine shutting down")

	e.c.Flush()
	e.q.RequestShutdown()

	done := make(chan struct{})
	go func() {
		e.worker.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("rrdcached: shutdown timed out waiting for writer worker: %w", ctx.Err())
	}
}

// SetDiskLow is fed by an optional disk-capacity monitor; it has no effect
// on write acceptance, only on Status.
func (e *Engine) SetDiskLow(low bool) {
	e.diskLow.Store(low)
}

// Status returns a diagnostic snapshot. It is not a query path into cached
// sample data — just depth/count bookkeeping.
func (e *Engine) Status() Status {
	return Status{
		QueueDepth:   e.q.Len(),
		CacheEntries: e.c.Len(),
		DiskLow:      e.diskLow.Load(),
	}
}
