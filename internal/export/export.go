// Copyright (c) 2026 The rrdcached Authors.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package export runs an optional, cron-scheduled cold-archive exporter:
// it walks the archive data directory, compresses each archive file (gzip
// or zstd) and uploads the result to S3, throttled to a configured upload
// rate.
// This has no effect on the write-behind pipeline itself — it reads
// archive files the writer worker has already flushed, never the cache —
// and is entirely absent unless a host configures it.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/rrdcached/rrdcached/internal/logging"
)

// Uploader is the subset of the S3 manager the exporter drives, narrowed
// for testability.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Codec selects the compression format applied before upload.
type Codec string

const (
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
)

// Config configures one exporter instance.
type Config struct {
	DataDir            string
	Schedule           string // standard 5-field cron expression
	Bucket             string
	Prefix             string
	Region             string
	AccessKey          string
	SecretKey          string
	RateBytesPerSecond int64
	Codec              Codec // defaults to CodecGzip when empty
}

// Exporter periodically uploads compressed snapshots of every archive
// file under DataDir to S3, rate-limited to RateBytesPerSecond.
type Exporter struct {
	cfg      Config
	uploader Uploader
	cron     *cron.Cron
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New builds an Exporter and its S3 client from cfg. The client uses
// static credentials when AccessKey/SecretKey are set, otherwise the
// default AWS credential chain.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Exporter, error) {
	optFns := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("rrdcached: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client)

	var limiter *rate.Limiter
	if cfg.RateBytesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateBytesPerSecond), int(cfg.RateBytesPerSecond))
	}

	return &Exporter{
		cfg:      cfg,
		uploader: uploader,
		limiter:  limiter,
		logger:   logging.ForComponent(logger, logging.ComponentExport),
	}, nil
}

// Start schedules periodic exports per cfg.Schedule and returns once the
// cron entry is registered; call Stop to wait for in-flight runs to drain.
func (e *Exporter) Start() error {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(e.logger.Handler(), slog.LevelDebug))))

	if _, err := c.AddFunc(e.cfg.Schedule, func() {
		if err := e.RunOnce(context.Background()); err != nil {
			e.logger.Error("export run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("rrdcached: registering export schedule %q: %w", e.cfg.Schedule, err)
	}

	e.cron = c
	e.cron.Start()
	e.logger.Info("export scheduler started", "schedule", e.cfg.Schedule, "bucket", e.cfg.Bucket)
	return nil
}

// Stop stops the scheduler and waits, up to ctx, for a run in progress.
func (e *Exporter) Stop(ctx context.Context) {
	if e.cron == nil {
		return
	}
	stopCtx := e.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		e.logger.Warn("export scheduler stop timed out")
	}
}

// RunOnce walks DataDir and uploads every non-directory entry found,
// compressed with the configured codec, under Prefix/<relative path>.gz
// (or .zst for zstd). It continues past per-file failures, logging and
// counting them.
func (e *Exporter) RunOnce(ctx context.Context) error {
	start := time.Now()
	var uploaded, failed int

	err := filepath.WalkDir(e.cfg.DataDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if uerr := e.uploadOne(ctx, path); uerr != nil {
			e.logger.Warn("export upload failed", "path", path, "error", uerr)
			failed++
			return nil
		}
		uploaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("rrdcached: walking %s: %w", e.cfg.DataDir, err)
	}

	e.logger.Info("export run complete",
		"uploaded", uploaded, "failed", failed, "duration", time.Since(start))
	return nil
}

func (e *Exporter) uploadOne(ctx context.Context, path string) error {
	rel, err := filepath.Rel(e.cfg.DataDir, path)
	if err != nil {
		return err
	}

	codec := e.cfg.Codec
	if codec == "" {
		codec = CodecGzip
	}
	ext := ".gz"
	if codec == CodecZstd {
		ext = ".zst"
	}
	key := strings.TrimLeft(filepath.ToSlash(filepath.Join(e.cfg.Prefix, rel))+ext, "/")

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()

	compressor, err := newCompressor(codec, pw)
	if err != nil {
		pw.Close()
		return err
	}

	go func() {
		var w io.Writer = compressor
		if e.limiter != nil {
			w = &throttledWriter{ctx: ctx, w: compressor, limiter: e.limiter}
		}
		_, copyErr := io.Copy(w, f)
		closeErr := compressor.Close()
		if copyErr == nil {
			copyErr = closeErr
		}
		pw.CloseWithError(copyErr)
	}()

	_, err = e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(e.cfg.Bucket),
		Key:    aws.String(key),
		Body:   pr,
	})
	return err
}

// newCompressor returns a writer that compresses into w using codec. AWS
// S3 upload bodies on the io.Pipe side, so both codecs implement
// io.WriteCloser.
func newCompressor(codec Codec, w io.Writer) (io.WriteCloser, error) {
	switch codec {
	case CodecZstd:
		return zstd.NewWriter(w)
	case CodecGzip, "":
		return pgzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("rrdcached: export: unknown codec %q", codec)
	}
}

// throttledWriter rate-limits Write to the configured upload rate,
// splitting large writes into burst-sized chunks so large archive files
// don't reserve the whole budget at once.
type throttledWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		chunk := len(p)
		if burst := t.limiter.Burst(); chunk > burst {
			chunk = burst
		}
		if err := t.limiter.WaitN(t.ctx, chunk); err != nil {
			return total, err
		}
		n, err := t.w.Write(p[:chunk])
		total += n
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}
