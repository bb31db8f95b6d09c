// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rrdcached/rrdcached/internal/config"
	"github.com/rrdcached/rrdcached/internal/pathsynth"
	"github.com/rrdcached/rrdcached/internal/schema"
	"github.com/rrdcached/rrdcached/internal/serialize"
)

type recordingStore struct {
	mu      sync.Mutex
	created map[string]bool
	updates map[string]int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{created: make(map[string]bool), updates: make(map[string]int)}
}

func (s *recordingStore) Create(path string, desc schema.Descriptors) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created[path] = true
	return nil
}

func (s *recordingStore) Update(path string, samples []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[path] += len(samples)
	return nil
}

func (s *recordingStore) Stat(path string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created[path], s.created[path], nil
}

func (s *recordingStore) totalUpdates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.updates {
		total += n
	}
	return total
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	b := config.NewBuilder()
	cfg, _ := b.Finalize(10 * time.Second)
	cfg.DataDir = "/data"
	return cfg
}

func TestEngine_WriteCreatesArchiveOnFirstWrite(t *testing.T) {
	store := newRecordingStore()
	eng := New(testConfig(), store, testLogger())
	eng.Init()
	defer eng.Shutdown(context.Background())

	ds := schema.DataSet{Type: "load", Fields: []schema.Field{{Name: "shortterm", Kind: schema.Gauge}}}
	id := pathsynth.Identity{Host: "h", Plugin: "load", Type: "load"}

	if err := eng.Write(ds, id, serialize.Sample{Timestamp: 100, Values: []serialize.Value{{Gauge: 1.0}}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := eng.Write(ds, id, serialize.Sample{Timestamp: 110, Values: []serialize.Value{{Gauge: 2.0}}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	store.mu.Lock()
	created := len(store.created)
	store.mu.Unlock()
	if created != 1 {
		t.Errorf("expected archive created exactly once, got %d", created)
	}
}

func TestEngine_ShutdownDrainsWithoutLoss(t *testing.T) {
	store := newRecordingStore()
	eng := New(testConfig(), store, testLogger())
	eng.Init()

	ds := schema.DataSet{Type: "load", Fields: []schema.Field{{Name: "shortterm", Kind: schema.Gauge}}}
	id := pathsynth.Identity{Host: "h", Plugin: "load", Type: "load"}

	for i := 0; i < 20; i++ {
		if err := eng.Write(ds, id, serialize.Sample{
			Timestamp: int64(100 + i*10),
			Values:    []serialize.Value{{Gauge: float64(i)}},
		}); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := store.totalUpdates(); got != 20 {
		t.Errorf("expected all 20 samples to reach the store by shutdown, got %d", got)
	}
}

func TestEngine_ConcurrentProducersAllSamplesDelivered(t *testing.T) {
	store := newRecordingStore()
	eng := New(testConfig(), store, testLogger())
	eng.Init()

	ds := schema.DataSet{Type: "counter", Fields: []schema.Field{{Name: "n", Kind: schema.Counter}}}

	const producers, perProducer = 5, 30
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			id := pathsynth.Identity{Host: "h", Plugin: "p", PluginInstance: string(rune('a' + p)), Type: "counter"}
			for i := 0; i < perProducer; i++ {
				err := eng.Write(ds, id, serialize.Sample{
					Timestamp: int64(100 + i*10),
					Values:    []serialize.Value{{Counter: uint64(i)}},
				})
				if err != nil {
					t.Errorf("producer %d write %d: %v", p, i, err)
				}
			}
		}(p)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := store.totalUpdates(); got != producers*perProducer {
		t.Errorf("expected %d total samples delivered, got %d", producers*perProducer, got)
	}
}

func TestEngine_StatusReflectsDiskLow(t *testing.T) {
	store := newRecordingStore()
	eng := New(testConfig(), store, testLogger())
	eng.Init()
	defer eng.Shutdown(context.Background())

	if eng.Status().DiskLow {
		t.Error("expected DiskLow to default to false")
	}
	eng.SetDiskLow(true)
	if !eng.Status().DiskLow {
		t.Error("expected DiskLow to reflect SetDiskLow(true)")
	}
}
