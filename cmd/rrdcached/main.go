// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Command rrdcached is a standalone demonstration host for the write-behind
// caching engine: it loads a YAML configuration, starts the engine and its
// optional disk monitor and cold-archive exporter, and runs simulated
// collector plugins writing samples until SIGTERM/SIGINT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rrdcached/rrdcached/internal/archive"
	"github.com/rrdcached/rrdcached/internal/config"
	"github.com/rrdcached/rrdcached/internal/engine"
	"github.com/rrdcached/rrdcached/internal/export"
	"github.com/rrdcached/rrdcached/internal/logging"
	"github.com/rrdcached/rrdcached/internal/monitor"
	"github.com/rrdcached/rrdcached/internal/pathsynth"
	"github.com/rrdcached/rrdcached/internal/schema"
	"github.com/rrdcached/rrdcached/internal/serialize"
)

func main() {
	configPath := flag.String("config", "/etc/rrdcached/rrdcached.yaml", "path to configuration file")
	flag.Parse()

	fc, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.NewLogger(fc.Logging.Level, fc.Logging.Format, fc.Logging.File)
	defer logCloser.Close()

	if err := run(fc, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(fc *config.FileConfig, logger *slog.Logger) error {
	builder, err := fc.Builder()
	if err != nil {
		return fmt.Errorf("building engine config: %w", err)
	}

	cfg, err := builder.Finalize(fc.GlobalInterval())
	if err != nil {
		return fmt.Errorf("finalizing engine config: %w", err)
	}

	store := archive.NewFileStore()
	eng := engine.New(cfg, store, logger)
	eng.Init()

	var diskMon *monitor.DiskMonitor
	if fc.Monitor != nil {
		diskMon = monitor.New(cfg.DataDir, fc.Monitor.LowDiskPercent, 30*time.Second, eng, logger)
		diskMon.Start()
	}

	var exporter *export.Exporter
	if fc.Export != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		exporter, err = export.New(ctx, export.Config{
			DataDir:            cfg.DataDir,
			Schedule:           fc.Export.Schedule,
			Bucket:             fc.Export.Bucket,
			Prefix:             fc.Export.Prefix,
			Region:             fc.Export.Region,
			RateBytesPerSecond: fc.Export.RateBytes,
			Codec:              export.Codec(fc.Export.Codec),
		}, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("creating exporter: %w", err)
		}
		if err := exporter.Start(); err != nil {
			return fmt.Errorf("starting exporter: %w", err)
		}
	}

	stopProducers := startDemoProducers(eng, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	close(stopProducers)

	if diskMon != nil {
		diskMon.Stop()
	}
	if exporter != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		exporter.Stop(stopCtx)
		stopCancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return eng.Shutdown(shutdownCtx)
}

// startDemoProducers simulates a handful of concurrent collector plugin
// write threads, each hammering its own metric identity on a jittered
// interval, exercising concurrent Submit under the single shared cache
// and queue.
func startDemoProducers(eng *engine.Engine, logger *slog.Logger) chan struct{} {
	stop := make(chan struct{})

	ds := schema.DataSet{
		Type: "load",
		Fields: []schema.Field{
			{Name: "shortterm", Kind: schema.Gauge},
		},
	}

	plugins := []string{"cpu", "memory", "disk", "interface", "load"}
	for _, plugin := range plugins {
		go func(plugin string) {
			id := pathsynth.Identity{Host: "localhost", Plugin: plugin, Type: ds.Type}
			ticker := time.NewTicker(time.Duration(2000+rand.Intn(1000)) * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					sample := serialize.Sample{
						Timestamp: time.Now().Unix(),
						Values:    []serialize.Value{{Gauge: rand.Float64() * 100}},
					}
					if err := eng.Write(ds, id, sample); err != nil {
						logger.Warn("demo write failed", "plugin", plugin, "error", err)
					}
				}
			}
		}(plugin)
	}

	return stop
}
