package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/tram/adapter"
	"github.com/justapithecus/tram/alloc"
	"github.com/justapithecus/tram/multipart"
	"github.com/justapithecus/tram/store"
	"github.com/justapithecus/tram/transport"
	"github.com/justapithecus/tram/types"
)

// RecvCommand returns the recv command. It posts a receive for one
// multi-part transfer, optionally persists the frames, and optionally
// publishes a completion event.
func RecvCommand() *cli.Command {
	return &cli.Command{
		Name:  "recv",
		Usage: "Receive one multi-part transfer (optionally store and publish)",
		Flags: append(append(append(TransferFlags(), StorageFlags()...), AdapterFlags()...),
			&cli.Int64Flag{
				Name:  "alloc-max-bytes",
				Usage: "Cap on total live frame memory (0 = unlimited)",
			},
		),
		Action: recvAction,
	}
}

func recvAction(c *cli.Context) error {
	cfg, err := mergedConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitSetup)
	}
	if c.IsSet("alloc-max-bytes") {
		cfg.Alloc.MaxBytes = c.Int64("alloc-max-bytes")
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitSetup)
	}

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()

	st, err := buildStore(setupCtx, cfg.Storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("storage: %v", err), exitSetup)
	}
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	publisher, err := buildAdapter(cfg.Adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("adapter: %v", err), exitSetup)
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	ep, cleanup, err := buildEndpoint(cfg, true, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("transport: %v", err), exitSetup)
	}
	defer cleanup()
	defer func() { _ = ep.Close() }()

	collector := metricsCollector(cfg)
	tag := transport.DeriveTag(c.String("tag"))

	var allocator alloc.Allocator = alloc.Host{}
	if cfg.Alloc.MaxBytes > 0 {
		allocator = alloc.NewLimited(allocator, cfg.Alloc.MaxBytes)
	}

	opts := append(requestOpts(cfg, logger, collector), multipart.WithAllocator(allocator))

	start := time.Now()
	req, err := multipart.Recv(ep, tag, opts...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("recv: %v", err), exitTransfer)
	}

	ctx, cancel := signalContext(c.Duration("timeout"))
	defer cancel()

	if err := req.Wait(ctx); err != nil {
		_ = ep.Close()
		return cli.Exit(fmt.Sprintf("recv %s: %v", req.ID(), err), exitTransfer)
	}
	duration := time.Since(start)

	var frameCount int
	var bytes uint64
	if req.Status() == types.StatusOK {
		bufs, err := req.Buffers()
		if err != nil {
			return cli.Exit(err.Error(), exitTransfer)
		}
		frameCount = len(bufs)
		for _, b := range bufs {
			bytes += b.Size()
		}
	}

	storagePath := ""
	if st != nil && req.Status() == types.StatusOK {
		manifest, err := store.WriteTransfer(ctx, st, req)
		if err != nil {
			collector.IncStoreWriteFailure()
			return cli.Exit(fmt.Sprintf("store transfer %s: %v", req.ID(), err), exitTransfer)
		}
		collector.IncStoreWriteSuccess()
		storagePath = store.TransferKey(manifest.TransferID)
	}

	if publisher != nil {
		event := &adapter.TransferCompletedEvent{
			EventType:   "transfer_completed",
			TransferID:  req.ID(),
			Tag:         req.Tag().String(),
			Status:      req.Status().String(),
			FrameCount:  frameCount,
			Bytes:       bytes,
			StoragePath: storagePath,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			WorkerID:    cfg.WorkerID,
			DurationMs:  duration.Milliseconds(),
		}
		if err := publisher.Publish(ctx, event); err != nil {
			// Publish failures do not fail the received transfer.
			logger.Sugar().Warnf("publish completion event: %v", err)
		}
	}

	if !c.Bool("quiet") {
		printTransferResult(req, frameCount, bytes, duration)
		if storagePath != "" {
			fmt.Printf("Stored:       %s\n", storagePath)
		}
	}

	if req.Status() != types.StatusOK {
		return cli.Exit("", exitTransfer)
	}
	return nil
}
