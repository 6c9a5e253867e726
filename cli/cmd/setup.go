package cmd

import (
	"context"
	"fmt"
	"net"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/tram/adapter"
	redisadapter "github.com/justapithecus/tram/adapter/redis"
	"github.com/justapithecus/tram/adapter/webhook"
	"github.com/justapithecus/tram/cli/config"
	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/metrics"
	"github.com/justapithecus/tram/store"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/transport/redis"
	"github.com/justapithecus/tram/transport/tcp"
)

// Exit codes for transfer-executing commands.
const (
	exitSuccess  = 0
	exitTransfer = 1
	exitSetup    = 2
)

// mergedConfig loads the optional config file and overlays any flags the
// user set. Flags always win over file values.
func mergedConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := c.String("transport"); v != "" {
		cfg.Transport = v
	}
	if v := c.String("addr"); v != "" {
		cfg.Addr = v
	}
	if v := c.String("redis-url"); v != "" {
		cfg.Redis.URL = v
	}
	if v := c.String("redis-prefix"); v != "" {
		cfg.Redis.Prefix = v
	}
	if v := c.String("progress"); v != "" {
		cfg.Progress = v
	}
	if c.IsSet("segment-capacity") {
		cfg.Capacity = c.Int("segment-capacity")
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("worker-id"); v != "" {
		cfg.WorkerID = v
	}
	if v := c.String("storage-backend"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := c.String("storage-path"); v != "" {
		cfg.Storage.Path = v
	}
	if v := c.String("storage-region"); v != "" {
		cfg.Storage.Region = v
	}
	if v := c.String("storage-endpoint"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if c.IsSet("storage-s3-path-style") {
		cfg.Storage.S3PathStyle = c.Bool("storage-s3-path-style")
	}
	if v := c.String("adapter"); v != "" {
		cfg.Adapter.Type = v
	}
	if v := c.String("adapter-url"); v != "" {
		cfg.Adapter.URL = v
	}
	if v := c.String("adapter-channel"); v != "" {
		cfg.Adapter.Channel = v
	}

	if cfg.WorkerID == "" {
		cfg.WorkerID = "tram"
	}
	return cfg, nil
}

// metricsCollector creates the worker metrics collector with the
// transport and storage dimensions from config.
func metricsCollector(cfg *config.Config) *metrics.Collector {
	return metrics.NewCollector(cfg.Transport, cfg.Storage.Backend, cfg.WorkerID)
}

// buildLogger creates the worker logger from config.
func buildLogger(cfg *config.Config) (*log.Logger, error) {
	if cfg.LogLevel == "" {
		return log.NewLogger(cfg.WorkerID), nil
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return log.NewLoggerAt(cfg.WorkerID, level), nil
}

// buildEndpoint creates the transport endpoint. When listen is true the
// tcp backend accepts one inbound connection instead of dialing; redis
// endpoints are symmetric and ignore listen. The returned cleanup must
// run after the endpoint is closed.
func buildEndpoint(cfg *config.Config, listen bool, logger *log.Logger) (transport.Endpoint, func(), error) {
	noop := func() {}
	switch cfg.Transport {
	case "tcp":
		if cfg.Addr == "" {
			return nil, noop, fmt.Errorf("tcp transport requires --addr")
		}
		if !listen {
			ep, err := tcp.Dial(cfg.Addr, tcp.WithLogger(logger))
			return ep, noop, err
		}
		ln, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			return nil, noop, err
		}
		conn, err := ln.Accept()
		if err != nil {
			_ = ln.Close()
			return nil, noop, err
		}
		return tcp.NewEndpoint(conn, tcp.WithLogger(logger)), func() { _ = ln.Close() }, nil

	case "redis":
		ep, err := redis.New(redis.Config{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
		}, redis.WithLogger(logger))
		return ep, noop, err

	case "":
		return nil, noop, fmt.Errorf("transport required (--transport or config file)")
	default:
		return nil, noop, fmt.Errorf("unknown transport: %s (must be tcp or redis)", cfg.Transport)
	}
}

// buildStore creates the transfer store, or nil when no backend is
// configured.
func buildStore(ctx context.Context, sc config.StorageConfig) (store.Store, error) {
	switch sc.Backend {
	case "":
		return nil, nil
	case "dir":
		if sc.Path == "" {
			return nil, fmt.Errorf("dir storage requires --storage-path")
		}
		return store.NewDir(sc.Path)
	case "s3":
		bucket, prefix := sc.Bucket, sc.Path
		if bucket == "" {
			bucket, prefix = store.ParseS3Path(sc.Path)
		}
		return store.NewS3(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       sc.Region,
			Endpoint:     sc.Endpoint,
			UsePathStyle: sc.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (must be dir or s3)", sc.Backend)
	}
}

// buildAdapter creates the completion-event adapter, or nil when no
// adapter is configured.
func buildAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	switch ac.Type {
	case "":
		return nil, nil
	case "redis":
		retries := redisadapter.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return redisadapter.New(redisadapter.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	case "webhook":
		retries := webhook.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be redis or webhook)", ac.Type)
	}
}
