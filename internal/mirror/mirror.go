// Package mirror copies shard files from S3 into the local shard tree so the
// locator finds them. Objects are keyed by the shard's path relative to the
// root, under an optional prefix.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	appconfig "tickshard/config"
	"tickshard/internal/metrics"
	"tickshard/internal/shard"
	"tickshard/logger"
)

// S3API is the subset of the S3 client the mirror uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Mirror struct {
	client  S3API
	bucket  string
	prefix  string
	limiter *rate.Limiter
	log     *logger.Entry
}

// Result counts what Hydrate did per candidate.
type Result struct {
	Downloaded int
	Present    int
	Missing    int
	Failed     int
	Bytes      int64
}

// New builds an S3 client from cfg.
func New(ctx context.Context, cfg appconfig.S3Config) (*Mirror, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, cfg.RequestsPerSecond), nil
}

// NewWithClient wraps an existing client. rps <= 0 disables pacing.
func NewWithClient(client S3API, bucket, prefix string, rps float64) *Mirror {
	limit := rate.Inf
	burst := 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &Mirror{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		limiter: rate.NewLimiter(limit, burst),
		log:     logger.GetLogger().WithComponent("shard_mirror"),
	}
}

// Key is the object key of c.
func (m *Mirror) Key(c shard.Candidate) string {
	if m.prefix == "" {
		return c.Rel
	}
	return path.Join(m.prefix, c.Rel)
}

// Hydrate downloads every candidate that is not already on disk. Objects
// missing from the bucket are skipped like missing local days. Other
// failures are logged and counted; only context cancellation stops the run.
func (m *Mirror) Hydrate(ctx context.Context, candidates []shard.Candidate) (Result, error) {
	var res Result
	for _, c := range candidates {
		if info, err := os.Stat(c.Path); err == nil && info.Mode().IsRegular() {
			res.Present++
			metrics.MirrorObject("present")
			continue
		}
		if err := m.limiter.Wait(ctx); err != nil {
			return res, err
		}

		n, err := m.fetch(ctx, c)
		var nsk *s3types.NoSuchKey
		switch {
		case err == nil:
			res.Downloaded++
			res.Bytes += n
			metrics.MirrorObject("downloaded")
		case errors.As(err, &nsk):
			res.Missing++
			metrics.MirrorObject("missing")
		case ctx.Err() != nil:
			return res, ctx.Err()
		default:
			res.Failed++
			metrics.MirrorObject("failed")
			m.log.WithError(err).WithFields(logger.Fields{
				"bucket": m.bucket,
				"key":    m.Key(c),
				"path":   c.Path,
			}).Warn("failed to mirror shard")
		}
	}

	m.log.WithFields(logger.Fields{
		"downloaded": res.Downloaded,
		"present":    res.Present,
		"missing":    res.Missing,
		"failed":     res.Failed,
		"bytes":      res.Bytes,
	}).Info("shard mirror complete")
	logger.LogDataFlowEntry(m.log, "s3://"+path.Join(m.bucket, m.prefix), "local_store", res.Downloaded, "shard")
	return res, nil
}

// fetch writes the object to a temporary file next to the target and renames
// it into place, so readers never see a partial shard.
func (m *Mirror) fetch(ctx context.Context, c shard.Candidate) (int64, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.Key(c)),
	})
	if err != nil {
		return 0, err
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return 0, fmt.Errorf("create shard dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.Path), ".mirror-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, out.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("download %s: %w", m.Key(c), err)
	}
	if err := os.Rename(tmp.Name(), c.Path); err != nil {
		return n, fmt.Errorf("install shard: %w", err)
	}
	return n, nil
}
