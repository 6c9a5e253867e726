package cmd

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/cli/render"
)

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep view of a single stored transfer.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect a single stored transfer",
		Subcommands: []*cli.Command{
			inspectTransferCommand(),
		},
	}
}

func inspectTransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Inspect a stored transfer by ID",
		ArgsUsage: "<transfer-id>",
		Flags:     readerFlags(),
		Action:    inspectTransferAction,
	}
}

func inspectTransferAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("transfer-id required", 1)
	}
	transferID := c.Args().First()

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

	resp, err := rd.InspectTransfer(ctx, transferID)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_transfer", resp)
	}

	return r.Render(resp)
}
