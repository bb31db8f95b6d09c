// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package queue is the FIFO work queue handing file paths from producer
// goroutines to the single writer worker, with a condition-variable
// handoff: a mutex-guarded linked list plus a sync.Cond that the worker
// waits on and producers signal.
package queue

import "sync"

// item is one queued path, linked FIFO-order to the next.
type item struct {
	path string
	next *item
}

// Queue is a singly-linked FIFO of pending paths, plus a shutdown flag.
// The zero value is not usable; construct with New.
type Queue struct {
	mu   sync.Mutex
	cond sync.Cond

	head *item
	tail *item

	shutdown bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond.L = &q.mu
	return q
}

// Enqueue appends path to the tail and wakes one blocked dequeuer. Callers
// holding the cache lock must acquire no other lock before this one — the
// engine's global lock order is cache-lock-then-queue-lock, never the
// reverse.
func (q *Queue) Enqueue(path string) {
	q.mu.Lock()
	entry := &item{path: path}
	if q.tail == nil {
		q.head = entry
	} else {
		q.tail.next = entry
	}
	q.tail = entry
	q.mu.Unlock()

	q.cond.Signal()
}

// DequeueBlocking waits for a path to become available and returns it. It
// returns ok=false only once the queue has been fully drained and shutdown
// has been requested — never while paths remain queued, even if shutdown
// was requested earlier.
func (q *Queue) DequeueBlocking() (path string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == nil && !q.shutdown {
		q.cond.Wait()
	}

	if q.head == nil {
		return "", false
	}

	entry := q.head
	if q.head == q.tail {
		q.head, q.tail = nil, nil
	} else {
		q.head = q.head.next
	}

	return entry.path, true
}

// RequestShutdown marks the queue as shutting down and wakes every blocked
// dequeuer so each can re-check the "empty and shutdown" condition. The
// worker only exits once it observes an empty queue after this call.
func (q *Queue) RequestShutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Len reports the number of paths currently queued. Intended for
// diagnostics and tests; the count can be stale the instant it's read.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for e := q.head; e != nil; e = e.next {
		n++
	}
	return n
}
