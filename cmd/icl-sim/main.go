// Command icl-sim runs a simulated ICL with one CCD and one monochromator.
//
// It serves the ICL WebSocket protocol so that the SDK, icl-ctl and the
// examples can be used without instruments attached.
//
// Usage:
//
//	icl-sim [flags]
//
// Flags:
//
//	-addr string          Listen address (default "127.0.0.1:25010")
//	-profile string       YAML profile describing the simulated devices
//	-time-scale float     Multiplier for exposure and move durations
//	-advertise            Announce the endpoint via mDNS
//	-instance string      mDNS instance name (default "ICL-<hostname>")
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Capture all frames to this file
//
// Examples:
//
//	# Default instruments on the vendor port
//	icl-sim
//
//	# Two CCDs from a profile, acquisitions 100x faster than real time
//	icl-sim -profile lab.yaml -time-scale 0.01
//
// The simulator exits on SIGINT, SIGTERM or when a client sends
// icl_shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/icl-sdk/icl-go/pkg/config"
	icllog "github.com/icl-sdk/icl-go/pkg/log"
	"github.com/icl-sdk/icl-go/pkg/simulator"
	"github.com/icl-sdk/icl-go/pkg/transport"
)

var (
	addr        = flag.String("addr", fmt.Sprintf("127.0.0.1:%d", transport.DefaultPort), "Listen address")
	profilePath = flag.String("profile", "", "YAML profile describing the simulated devices")
	timeScale   = flag.Float64("time-scale", 0, "Multiplier for exposure and move durations (0 keeps the profile value)")
	advertise   = flag.Bool("advertise", false, "Announce the endpoint via mDNS")
	instance    = flag.String("instance", "", "mDNS instance name")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Capture all frames to this file")
)

func main() {
	flag.Parse()

	level, err := config.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	profile := simulator.DefaultProfile()
	if *profilePath != "" {
		if profile, err = simulator.LoadProfile(*profilePath); err != nil {
			log.Fatalf("Failed to load profile: %v", err)
		}
	}
	if *timeScale < 0 {
		log.Fatalf("Invalid configuration: time-scale must not be negative")
	}
	if *timeScale > 0 {
		profile.TimeScale = *timeScale
	}

	cfg := simulator.Config{
		Address:   *addr,
		Profile:   &profile,
		Advertise: *advertise,
		Instance:  *instance,
		Logger:    logger,
	}

	var protocolLoggers []icllog.Logger
	if *protocolLog != "" {
		fileLogger, err := icllog.NewFileLogger(*protocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol logger: %v", err)
		}
		defer fileLogger.Close()
		protocolLoggers = append(protocolLoggers, fileLogger)
		log.Printf("Protocol logging to: %s", fileLogger.Path())
	}
	if level <= slog.LevelDebug {
		protocolLoggers = append(protocolLoggers, icllog.NewSlogAdapter(logger))
	}
	if len(protocolLoggers) > 0 {
		cfg.ProtocolLogger = icllog.NewMultiLogger(protocolLoggers...)
	}

	log.Println("ICL Simulator")
	log.Println("=============")
	log.Printf("ICL version: %s", profile.Version)
	for _, c := range profile.CCDs {
		log.Printf("CCD: %s (%s) %dx%d", c.Model, c.SerialNumber, c.Width, c.Height)
	}
	for _, m := range profile.Monochromators {
		log.Printf("Monochromator: %s (%s)", m.Model, m.SerialNumber)
	}
	if profile.TimeScale != 1 {
		log.Printf("Time scale: %g", profile.TimeScale)
	}

	sim, err := simulator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create simulator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sim.Start(ctx); err != nil {
		log.Fatalf("Failed to start simulator: %v", err)
	}
	log.Printf("Listening on %s", sim.URL())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-sim.ShutdownRequested():
		log.Println("Shutdown requested by client")
	}

	log.Println("Shutting down...")
	if err := sim.Stop(); err != nil {
		log.Printf("Error stopping simulator: %v", err)
	}
}

func setupLogging(level slog.Level) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	switch {
	case level <= slog.LevelDebug:
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case level >= slog.LevelWarn:
		log.SetFlags(log.Ltime)
	}
}
