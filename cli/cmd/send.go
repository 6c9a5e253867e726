package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/cli/config"
	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/metrics"
	"github.com/justapithecus/tram/multipart"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/types"
)

// SendCommand returns the send command. Each file argument becomes one
// frame of a single multi-part transfer.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send files as frames of one multi-part transfer",
		ArgsUsage: "<file> [<file>...]",
		Flags: append(TransferFlags(),
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Memory kind for all frames: host or device",
				Value: "host",
			},
		),
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("at least one file required", exitSetup)
	}

	cfg, err := mergedConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitSetup)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitSetup)
	}

	kind, err := types.ParseMemoryKind(c.String("kind"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetup)
	}

	// Read all frames up front so a bad path fails before any transport
	// side effects.
	files := c.Args().Slice()
	frames := make([][]byte, len(files))
	kinds := make([]types.MemoryKind, len(files))
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("read frame %s: %v", path, err), exitSetup)
		}
		frames[i] = data
		kinds[i] = kind
	}

	ep, cleanup, err := buildEndpoint(cfg, false, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("transport: %v", err), exitSetup)
	}
	defer cleanup()
	defer func() { _ = ep.Close() }()

	collector := metricsCollector(cfg)
	tag := transport.DeriveTag(c.String("tag"))

	start := time.Now()
	req, err := multipart.Send(ep, tag, frames, kinds, requestOpts(cfg, logger, collector)...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("send: %v", err), exitTransfer)
	}

	ctx, cancel := signalContext(c.Duration("timeout"))
	defer cancel()

	if err := req.Wait(ctx); err != nil {
		_ = ep.Close()
		return cli.Exit(fmt.Sprintf("send %s: %v", req.ID(), err), exitTransfer)
	}
	duration := time.Since(start)

	var bytes uint64
	for _, f := range frames {
		bytes += uint64(len(f))
	}
	if !c.Bool("quiet") {
		printTransferResult(req, len(frames), bytes, duration)
	}

	if req.Status() != types.StatusOK {
		return cli.Exit("", exitTransfer)
	}
	return nil
}

// requestOpts assembles the multipart options shared by send and recv.
func requestOpts(cfg *config.Config, logger *log.Logger, collector *metrics.Collector) []multipart.Option {
	opts := []multipart.Option{
		multipart.WithLogger(logger),
		multipart.WithMetrics(collector),
	}
	if cfg.Capacity > 0 {
		opts = append(opts, multipart.WithSegmentCapacity(cfg.Capacity))
	}
	return opts
}

// signalContext returns a context canceled by SIGINT/SIGTERM, with an
// optional deadline.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, cancel
	}
	tctx, tcancel := context.WithTimeout(ctx, timeout)
	return tctx, func() {
		tcancel()
		cancel()
	}
}

func printTransferResult(req *multipart.Request, frameCount int, bytes uint64, duration time.Duration) {
	fmt.Printf("\ntransfer_id=%s, tag=%s, status=%s, duration=%s\n",
		req.ID(),
		req.Tag(),
		req.Status(),
		duration.Round(time.Millisecond),
	)

	fmt.Printf("\n=== Transfer Result ===\n")
	fmt.Printf("Transfer ID:  %s\n", req.ID())
	fmt.Printf("Tag:          %s\n", req.Tag())
	fmt.Printf("Direction:    %s\n", req.Direction())
	fmt.Printf("Status:       %s\n", req.Status())
	fmt.Printf("Frames:       %d\n", frameCount)
	fmt.Printf("Bytes:        %d\n", bytes)
	fmt.Printf("Duration:     %s\n", duration)
	if err := req.Err(); err != nil {
		fmt.Printf("Error:        %v\n", err)
	}
}
