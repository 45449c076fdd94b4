package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/raoulx24/recpush/internal/capture"
	"github.com/raoulx24/recpush/internal/config"
	"github.com/raoulx24/recpush/internal/logging"
	"github.com/raoulx24/recpush/internal/mailbox"
	"github.com/raoulx24/recpush/internal/retention"
	"github.com/raoulx24/recpush/internal/slot"
	"github.com/raoulx24/recpush/internal/storage"
	"github.com/raoulx24/recpush/internal/telemetry"
	"github.com/raoulx24/recpush/internal/upload"
	"github.com/raoulx24/recpush/internal/watchdog"
	"github.com/raoulx24/recpush/internal/watcher"
	"github.com/raoulx24/recpush/internal/worker"
)

func main() {
	configPath := flag.String("config", "recpush.yaml", "path to the YAML config file")
	list := flag.Bool("list", false, "print the recordings on storage and exit")
	flag.Parse()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logg := logging.New(cfg.Logging, os.Stderr)

	layout := slot.NewLayout(cfg.Storage, cfg.Capture.Channels)

	if *list {
		if err := listRecordings(os.Stdout, cfg.Storage.Root, layout); err != nil {
			log.Fatalf("failed to list recordings: %v", err)
		}
		return
	}

	fs, err := storage.New(cfg.Storage.Root)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	counters, err := slot.LoadCounters(ctx, fs, logg)
	if err != nil {
		log.Fatalf("failed to load counters: %v", err)
	}

	ret := retention.New(fs, layout, counters, logg)

	required := slot.RequiredBlocks(cfg.Capture.Channels, cfg.Capture.SampleRate, cfg.Capture.Length, cfg.Storage.MarginBlocks)
	alloc := slot.NewAllocator(fs, layout, counters, ret, cfg.Storage.Rollover, required, logg)

	// A missed reset timeout means the loop is wedged; exit so the supervisor restarts us.
	feeder := watchdog.New(cfg.Watchdog, logg, func() { os.Exit(1) })

	recOpts := []capture.Option{capture.WithFeeder(feeder), capture.WithLogger(logg)}
	if cfg.Telemetry.Enabled {
		port, err := telemetry.OpenSerial(cfg.Telemetry.Port, cfg.Telemetry.Baud)
		if err != nil {
			log.Fatalf("failed to open telemetry port: %v", err)
		}
		defer port.Close()
		streamer := telemetry.NewStreamer(port, cfg.Capture.Channels, logg,
			telemetry.WithQueue(cfg.Telemetry.QueueFrames),
			telemetry.WithDecimation(cfg.Telemetry.Decimate))
		defer streamer.Close()
		recOpts = append(recOpts, capture.WithTap(streamer))
	}
	rec := capture.NewRecorder(fs, buildQueues(cfg.Capture), cfg.Capture.FlushSize, recOpts...)

	mb := mailbox.New[config.Config]()

	workerOpts := []worker.Option{
		worker.WithFeeder(feeder),
		worker.WithMailbox(mb),
		worker.WithReloadHook(func(c config.Config) {
			alloc.SetRollover(c.Storage.Rollover)
		}),
	}
	if cfg.FTP.Enabled {
		up := upload.New(fs, cfg.FTP, upload.NewSessionFactory(cfg.FTP, logg), feeder, logg)
		workerOpts = append(workerOpts, worker.WithUploader(up))
	}

	w, err := worker.New(cfg.Capture, alloc, rec, logg, workerOpts...)
	if err != nil {
		log.Fatalf("failed to create worker: %v", err)
	}

	// Watcher (detects config changes and pushes into mailbox)
	watch := watcher.New(*configPath, cfg.ConfigReload, logg, mb)
	if cfg.ConfigReload.Enabled {
		go func() {
			if err := watch.Start(ctx); err != nil {
				logg.Error("config watcher stopped", "error", err)
			}
		}()
	}

	// Hot reload on SIGHUP
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigCh:
				watch.Reload()
			}
		}
	}()

	if err := w.Run(ctx); err != nil {
		logg.Error("recorder halted", "error", err)
		os.Exit(1)
	}
	logg.Info("exit complete")
}

func buildQueues(c config.CaptureConfig) []capture.Queue {
	queues := make([]capture.Queue, c.Channels)
	for ch := range queues {
		if c.Source == "device" {
			queues[ch] = capture.NewDeviceQueue(c.Devices[ch], c.BlockSize, c.QueueBlocks)
		} else {
			queues[ch] = capture.NewSyntheticQueue(c.SampleRate, c.BlockSize, c.QueueBlocks, c.ToneHz*float64(ch+1))
		}
	}
	return queues
}
