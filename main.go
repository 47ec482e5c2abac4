package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tickshard/config"
	"tickshard/internal/metrics"
	"tickshard/internal/mirror"
	"tickshard/internal/shard"
	"tickshard/logger"
	"tickshard/models"
	"tickshard/reader"
)

const defaultConfigPath = "config/config.yml"

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "", "Path to configuration file (default config/config.<APP_ENV>.yml or "+defaultConfigPath+")")
	symbol := flag.String("symbol", "", "Symbol to scan, e.g. BTCUSDT")
	kindFlag := flag.String("kind", "top", "Record kind: top, trade or depth")
	market := flag.String("market", "", "Market: spot or fut; empty scans fut then spot")
	startFlag := flag.String("start", "", "Window start (RFC3339 or YYYY-MM-DD, inclusive)")
	endFlag := flag.String("end", "", "Window end (RFC3339 or YYYY-MM-DD, exclusive)")
	sampled := flag.Bool("sampled", false, "Select sampled top columns")
	flag.Parse()

	cfg, err := config.LoadConfig(config.ResolvePath(*configPath, defaultConfigPath))
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Tickshard.Name,
		"version": cfg.Tickshard.Version,
		"env":     config.AppEnvironment(),
	}).Info("starting tickshard")

	kind, err := shard.ParseKind(*kindFlag)
	if err != nil {
		log.WithError(err).Error("invalid kind")
		os.Exit(2)
	}
	start, err := parseTime(*startFlag)
	if err != nil {
		log.WithError(err).Error("invalid start")
		os.Exit(2)
	}
	end, err := parseTime(*endFlag)
	if err != nil {
		log.WithError(err).Error("invalid end")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.PrometheusAddr != "" {
		srv := metrics.Serve(cfg.Metrics.PrometheusAddr)
		defer srv.Close()
	}
	if cfg.Metrics.CloudWatch.Enabled {
		metrics.InitCloudWatch(ctx, cfg.Metrics.CloudWatch.Region, cfg.Metrics.CloudWatch.Namespace)
	}

	db := reader.Open(cfg.Store.Root, reader.Options{
		Prefetch:    cfg.Store.Prefetch,
		Debug:       cfg.Store.Debug,
		BatchSize:   cfg.Store.BatchSize,
		VerifyOrder: cfg.Store.VerifyOrder,
	})
	q := reader.Query{Symbol: *symbol, Market: *market, Start: start.UnixNano(), End: end.UnixNano()}

	if cfg.Storage.S3.Enabled {
		if err := hydrate(ctx, db, cfg.Storage.S3, kind, q); err != nil {
			log.WithError(err).Error("failed to mirror shards from S3")
			os.Exit(1)
		}
	}

	sum, err := scan(ctx, db, kind, q, *sampled)
	if err != nil {
		log.WithError(err).Error("scan failed")
		os.Exit(1)
	}

	log.WithComponent("main").WithFields(logger.Fields{
		"symbol":  q.Symbol,
		"kind":    kind,
		"rows":    sum.Rows,
		"batches": sum.Batches,
		"files":   len(sum.Files),
		"first":   formatNanos(sum.First),
		"last":    formatNanos(sum.Last),
		"errors":  len(sum.Errors),
		"metrics": sum.Metrics,
	}).Info("scan complete")
	for _, e := range sum.Errors {
		fmt.Fprintln(os.Stderr, e.Error())
	}
}

func hydrate(ctx context.Context, db *reader.DB, s3cfg config.S3Config, kind shard.Kind, q reader.Query) error {
	m, err := mirror.New(ctx, s3cfg)
	if err != nil {
		return err
	}
	cands, err := db.Expected(kind, q)
	if err != nil {
		return err
	}
	_, err = m.Hydrate(ctx, cands)
	return err
}

// summary is what the CLI reports about a scan.
type summary struct {
	Rows    int64
	Batches int
	Files   []string
	First   int64
	Last    int64
	Errors  []*reader.ShardError

	// Reader metrics reported when the scan finished, keyed by name.
	Metrics map[string]interface{}
}

func (s *summary) add(file string, ts []int64, n int) {
	s.Batches++
	s.Rows += int64(n)
	if len(s.Files) == 0 || s.Files[len(s.Files)-1] != file {
		s.Files = append(s.Files, file)
	}
	if len(ts) == 0 {
		return
	}
	if s.First == 0 {
		s.First = ts[0]
	}
	s.Last = ts[len(ts)-1]
}

func scan(ctx context.Context, db *reader.DB, kind shard.Kind, q reader.Query, sampled bool) (*summary, error) {
	sum := &summary{Metrics: make(map[string]interface{})}
	id := metrics.RegisterMetricHandler(func(m metrics.Metric) {
		if m.Component == "reader" && m.Fields["symbol"] == q.Symbol && m.Fields["kind"] == string(kind) {
			sum.Metrics[m.Name] = m.Value
		}
	})
	defer metrics.UnregisterMetricHandler(id)

	switch kind {
	case shard.Top:
		sel := models.AllTop()
		if sampled {
			sel = models.SampledTop()
		}
		r, err := db.Top(q, sel)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		var v models.TopView
		for ctx.Err() == nil && r.Next(&v) {
			sum.add(v.File, v.Ts, v.N)
		}
		sum.Errors = r.Errors()
	case shard.Trade:
		r, err := db.Trades(q, models.AllTrade())
		if err != nil {
			return nil, err
		}
		defer r.Close()
		var v models.TradeView
		for ctx.Err() == nil && r.Next(&v) {
			sum.add(v.File, v.Ts, v.N)
		}
		sum.Errors = r.Errors()
	case shard.Depth:
		r, err := db.Depth(q, models.AllDepth())
		if err != nil {
			return nil, err
		}
		defer r.Close()
		var v models.DepthView
		for ctx.Err() == nil && r.Next(&v) {
			sum.add(v.File, v.Ts, v.N)
		}
		sum.Errors = r.Errors()
	}
	return sum, ctx.Err()
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func formatNanos(ns int64) string {
	if ns == 0 {
		return ""
	}
	return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
}
