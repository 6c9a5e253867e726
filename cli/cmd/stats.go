package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/cli/render"
)

// StatsCommand returns the stats command with subcommands.
// Stats returns aggregated, derived facts about stored transfers.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated transfer statistics",
		Subcommands: []*cli.Command{
			statsTransfersCommand(),
		},
	}
}

func statsTransfersCommand() *cli.Command {
	return &cli.Command{
		Name:   "transfers",
		Usage:  "Show stored transfer statistics",
		Flags:  readerFlags(),
		Action: statsTransfersAction,
	}
}

func statsTransfersAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rd, closeReader, err := buildReader(ctx, c)
	if err != nil {
		return err
	}
	defer closeReader()

	stats, err := rd.Stats(ctx)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("stats_transfers", stats)
	}

	return r.Render(stats)
}
