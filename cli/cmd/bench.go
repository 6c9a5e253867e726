package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/cli/render"
	"github.com/justapithecus/tram/log"
	"github.com/justapithecus/tram/metrics"
	"github.com/justapithecus/tram/multipart"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/transport/memory"
	"github.com/justapithecus/tram/types"
)

// BenchResult is the response for the bench command.
type BenchResult struct {
	Transfers      int     `json:"transfers"`
	FramesPerXfer  int     `json:"frames_per_transfer"`
	FrameSize      int     `json:"frame_size"`
	Progress       string  `json:"progress"`
	DurationMs     int64   `json:"duration_ms"`
	ThroughputMBps float64 `json:"throughput_mbps"`

	Metrics metrics.Snapshot `json:"metrics"`
}

// BenchCommand returns the bench command. It runs transfers over an
// in-process loopback pair and reports protocol metrics.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Benchmark the protocol over an in-process loopback transport",
		Flags: append(ReadOnlyFlags(),
			&cli.IntFlag{
				Name:  "transfers",
				Usage: "Number of transfers to run",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "frames",
				Usage: "Frames per transfer",
				Value: 16,
			},
			&cli.IntFlag{
				Name:  "frame-size",
				Usage: "Bytes per frame",
				Value: 64 * 1024,
			},
			&cli.StringFlag{
				Name:  "progress",
				Usage: "Progress mode: background or manual",
				Value: "background",
			},
			&cli.IntFlag{
				Name:  "segment-capacity",
				Usage: "Frame descriptors per header segment (0 = default)",
			},
		),
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for bench", 1)
	}

	var mode memory.Mode
	switch c.String("progress") {
	case "background", "":
		mode = memory.ModeBackground
	case "manual":
		mode = memory.ModeManual
	default:
		return cli.Exit(fmt.Sprintf("invalid progress mode: %s", c.String("progress")), exitSetup)
	}

	transfers := c.Int("transfers")
	frameCount := c.Int("frames")
	frameSize := c.Int("frame-size")
	if transfers <= 0 || frameCount <= 0 || frameSize <= 0 {
		return cli.Exit("transfers, frames and frame-size must be positive", exitSetup)
	}

	collector := metrics.NewCollector("memory", "", "bench")
	opts := []multipart.Option{
		multipart.WithLogger(log.NewNop()),
		multipart.WithMetrics(collector),
	}
	if capacity := c.Int("segment-capacity"); capacity > 0 {
		opts = append(opts, multipart.WithSegmentCapacity(capacity))
	}

	frames := make([][]byte, frameCount)
	kinds := make([]types.MemoryKind, frameCount)
	for i := range frames {
		frames[i] = make([]byte, frameSize)
		for j := range frames[i] {
			frames[i][j] = byte(i + j)
		}
		kinds[i] = types.MemoryHost
	}

	sender, receiver := memory.NewPair(mode)
	defer func() { _ = sender.Close() }()
	defer func() { _ = receiver.Close() }()

	ctx, cancel := signalContext(0)
	defer cancel()

	start := time.Now()
	for i := 0; i < transfers; i++ {
		tag := transport.DeriveTag("bench", fmt.Sprintf("%d", i))

		recvReq, err := multipart.Recv(receiver, tag, opts...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("bench recv: %v", err), exitTransfer)
		}
		sendReq, err := multipart.Send(sender, tag, frames, kinds, opts...)
		if err != nil {
			return cli.Exit(fmt.Sprintf("bench send: %v", err), exitTransfer)
		}

		// Each Wait pumps its own endpoint in manual mode, so the two
		// sides must progress on separate goroutines.
		recvDone := make(chan error, 1)
		go func() { recvDone <- recvReq.Wait(ctx) }()

		if err := sendReq.Wait(ctx); err != nil {
			return cli.Exit(fmt.Sprintf("bench send wait: %v", err), exitTransfer)
		}
		if err := <-recvDone; err != nil {
			return cli.Exit(fmt.Sprintf("bench recv wait: %v", err), exitTransfer)
		}
		if sendReq.Status() != types.StatusOK || recvReq.Status() != types.StatusOK {
			return cli.Exit(fmt.Sprintf("bench transfer %d: send=%s recv=%s",
				i, sendReq.Status(), recvReq.Status()), exitTransfer)
		}
	}
	elapsed := time.Since(start)

	totalBytes := int64(transfers) * int64(frameCount) * int64(frameSize)
	mb := float64(totalBytes) / (1024 * 1024)

	result := BenchResult{
		Transfers:      transfers,
		FramesPerXfer:  frameCount,
		FrameSize:      frameSize,
		Progress:       c.String("progress"),
		DurationMs:     elapsed.Milliseconds(),
		ThroughputMBps: mb / elapsed.Seconds(),
		Metrics:        collector.Snapshot(),
	}

	return r.Render(result)
}
