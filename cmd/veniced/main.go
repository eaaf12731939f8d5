// Command veniced is a driver program that wires the engine, an audio
// device sink, and startup configuration together. It is an external
// collaborator exercising the core (SPEC_FULL.md §6); no engine logic
// lives here.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/atomozero/venicedaw-core/internal/audiodevice"
	"github.com/atomozero/venicedaw-core/internal/config"
	"github.com/atomozero/venicedaw-core/internal/engine"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to an engine.yaml startup config file.")
		sampleRate = pflag.Float64P("sample-rate", "r", 0, "Sample rate in Hz (overrides config file). Default 44100.")
		blockSize  = pflag.IntP("block-size", "b", 0, "Block size in samples, one of 64/128/256/512/1024/2048 (overrides config file).")
		logLevel   = pflag.StringP("log-level", "l", "", "Log level: debug, info, warn, error (overrides config file).")
		tracks     = pflag.IntP("tracks", "t", 1, "Number of test-signal tracks to create and play at startup.")
		headless   = pflag.Bool("headless", false, "Run against a null audio sink instead of real hardware.")
		version    = pflag.Bool("version", false, "Print version and compiled audio backends, then exit.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "veniced - VeniceDAW core engine driver.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: veniced [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if *version {
		printVersion()
		os.Exit(0)
	}

	logger := log.New(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *sampleRate != 0 {
		cfg.SampleRate = *sampleRate
	}
	if *blockSize != 0 {
		cfg.BlockSize = *blockSize
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := config.Validate(cfg); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.Info("starting engine", "sample_rate", cfg.SampleRate, "block_size", cfg.BlockSize, "channel_layout", cfg.ChannelLayout)

	eng := engine.New(cfg.SampleRate, cfg.BlockSize)
	for i := 0; i < *tracks; i++ {
		id := eng.AddTrack()
		eng.Track(id).Play()
		logger.Debug("created track", "id", id)
	}
	eng.Start()

	var sink audiodevice.Sink
	if *headless {
		logger.Info("running headless, no audio hardware will be opened")
		sink = audiodevice.NewNullSink(int(cfg.SampleRate), cfg.BlockSize, eng)
	} else {
		otoSink, err := audiodevice.NewOtoSink(int(cfg.SampleRate), eng)
		if err != nil {
			logger.Error("failed to open audio device", "err", err)
			os.Exit(1)
		}
		otoSink.SetUnderrunReporter(eng)
		sink = otoSink
	}

	if err := sink.Start(); err != nil {
		logger.Error("failed to start audio device", "err", err)
		os.Exit(1)
	}
	logger.Info("engine running, press Ctrl-C to stop")

	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info("shutting down")
			eng.Stop()
			sink.Stop()
			sink.Close()
			return
		case <-statusTicker.C:
			st := eng.Status()
			logger.Debug("status", "tracks", st.TrackCount, "peak", st.MasterPeak, "rms", st.MasterRMS, "dropped", st.DroppedFrames)
		}
	}
}
