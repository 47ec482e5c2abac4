package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Tickshard TickshardConfig `yaml:"tickshard"`
	Store     StoreConfig     `yaml:"store"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type TickshardConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// StoreConfig describes the local shard tree and reader behaviour.
type StoreConfig struct {
	Root        string `yaml:"root"`
	Prefetch    bool   `yaml:"prefetch"`
	Debug       bool   `yaml:"debug"`
	BatchSize   int    `yaml:"batch_size"`
	VerifyOrder bool   `yaml:"verify_order"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config points at a bucket mirroring the shard tree. Object keys are the
// shard paths relative to the store root, under Prefix.
type S3Config struct {
	Enabled           bool    `yaml:"enabled"`
	Bucket            string  `yaml:"bucket"`
	Region            string  `yaml:"region"`
	Endpoint          string  `yaml:"endpoint"`
	PathStyle         bool    `yaml:"path_style"`
	Prefix            string  `yaml:"prefix"`
	AccessKeyID       string  `yaml:"access_key_id"`
	SecretAccessKey   string  `yaml:"secret_access_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type MetricsConfig struct {
	PrometheusAddr string           `yaml:"prometheus_addr"`
	CloudWatch     CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// DefaultBatchSize is the number of leaf entries decoded per refill.
const DefaultBatchSize = 65536

// Default returns the configuration used for keys the YAML file leaves out.
func Default() Config {
	return Config{
		Tickshard: TickshardConfig{Name: "tickshard"},
		Store: StoreConfig{
			BatchSize: DefaultBatchSize,
		},
		Storage: StorageConfig{
			S3: S3Config{RequestsPerSecond: 20},
		},
		Metrics: MetricsConfig{
			CloudWatch: CloudWatchConfig{Namespace: "Tickshard"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TICKSHARD_ROOT"); v != "" {
		config.Store.Root = strings.TrimSpace(v)
	}
	if v := os.Getenv("TICKSHARD_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.Store.BatchSize = n
		}
	}

	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Storage.S3.Prefix = strings.Trim(strings.TrimSpace(config.Storage.S3.Prefix), "/")
}

func validateConfig(cfg *Config) error {
	if cfg.Tickshard.Name == "" {
		return fmt.Errorf("tickshard.name is required")
	}

	if cfg.Store.Root == "" {
		return fmt.Errorf("store.root is required")
	}
	if cfg.Store.BatchSize <= 0 {
		return fmt.Errorf("store.batch_size must be greater than 0")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
		if cfg.Storage.S3.RequestsPerSecond < 0 {
			return fmt.Errorf("storage.s3.requests_per_second must not be negative")
		}
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when CloudWatch is enabled")
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
