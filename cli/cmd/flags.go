// Package cmd provides CLI commands for the tram binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select read-only commands (inspect, stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect, stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// ConfigFlag points at an optional tram.yaml. Flags override file values.
var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	Usage:   "Path to tram.yaml config file",
}

// TransferFlags returns the flags shared by commands that move frames
// (send, recv). Values default from the config file when --config is set.
func TransferFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{
			Name:  "transport",
			Usage: "Transport backend: tcp or redis",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "TCP address (send: dial target, recv: listen address)",
		},
		&cli.StringFlag{
			Name:  "redis-url",
			Usage: "Redis connection URL for the redis transport",
		},
		&cli.StringFlag{
			Name:  "redis-prefix",
			Usage: "Redis key prefix for the redis transport",
		},
		&cli.StringFlag{
			Name:     "tag",
			Usage:    "Transfer name; both peers derive the same tag from it",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "progress",
			Usage: "Progress mode: background or manual",
		},
		&cli.IntFlag{
			Name:  "segment-capacity",
			Usage: "Frame descriptors per header segment (0 = default)",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "worker-id",
			Usage: "Worker identifier carried in logs and events",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Transfer deadline (0 = none)",
		},
		&cli.BoolFlag{
			Name:  "quiet",
			Usage: "Suppress result output",
		},
	}
}

// StorageFlags returns the flags selecting a transfer store backend.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: dir or s3",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (dir: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "storage-region",
			Usage: "AWS region for the s3 backend",
		},
		&cli.StringFlag{
			Name:  "storage-endpoint",
			Usage: "Custom S3 endpoint URL (R2, MinIO)",
		},
		&cli.BoolFlag{
			Name:  "storage-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}

// AdapterFlags returns the flags selecting a completion-event adapter.
func AdapterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion event adapter: redis or webhook",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Adapter target (redis URL or webhook endpoint)",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel for the redis adapter",
		},
	}
}
