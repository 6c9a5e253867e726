package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/cli/reader"
	"github.com/justapithecus/tram/cli/render"
)

// listWarningThreshold is the number of items above which we warn about using --limit.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// readerFlags are the flags shared by the read-only store commands.
func readerFlags() []cli.Flag {
	return append(append(ReadOnlyFlags(), ConfigFlag), StorageFlags()...)
}

// buildReader opens the configured store and wraps it in a Reader.
// The returned close func releases the store.
func buildReader(ctx context.Context, c *cli.Context) (reader.Reader, func(), error) {
	cfg, err := mergedConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Backend == "" {
		return nil, nil, fmt.Errorf("storage backend required (--storage-backend or config file)")
	}
	st, err := buildStore(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return reader.NewStoreReader(st), func() { _ = st.Close() }, nil
}

// ListCommand returns the list command with subcommands.
// List returns thin slices, not inspect-level detail.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored transfers",
		Subcommands: []*cli.Command{
			listTransfersCommand(),
		},
	}
}

func listTransfersCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfers",
		Usage: "List stored transfers, newest first",
		Flags: append(readerFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of transfers to return (0 = no limit)",
				Value: 0,
			},
		),
		Action: listTransfersAction,
	}
}

func listTransfersAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	// TUI not supported for list commands
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for list commands", 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rd, closeReader, err := buildReader(ctx, c)
	if err != nil {
		return err
	}
	defer closeReader()

	limit := c.Int("limit")
	results, err := rd.ListTransfers(ctx, limit)
	if err != nil {
		return err
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if len(results) > listWarningThreshold && limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider using --limit to reduce output.\n\n", len(results))
	}

	return r.Render(results)
}
