package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/dispatch"
	"github.com/HerbHall/aetherlink/internal/event"
	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/internal/pulse"
	"github.com/HerbHall/aetherlink/internal/recon"
	"github.com/HerbHall/aetherlink/internal/server"
	"github.com/HerbHall/aetherlink/internal/stats"
	"github.com/HerbHall/aetherlink/internal/stream"
	"github.com/HerbHall/aetherlink/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("AetherLink server starting", zap.String("version", version.Short()))

	// Load configuration
	config, err := server.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Shared event bus
	bus := event.NewBus(logger.Named("bus"))

	// Create module registry
	registry := plugin.NewRegistry(logger)

	// The ICMP checker lives in pulse; recon borrows it for discovery
	// probes so quality figures ride along with each scan.
	checker := pulse.NewICMPChecker(
		config.GetDuration("modules.pulse.probe_timeout"),
		config.GetInt("modules.pulse.probe_count"),
	)

	// Register all modules (compile-time composition)
	modules := []plugin.Plugin{
		recon.New(bus, recon.WithProbe(checker.Probe)),
		pulse.New(bus),
		stream.New(bus),
		stats.New(bus),
		dispatch.New(bus),
	}
	for _, p := range modules {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}

	// Initialize all modules
	if err := registry.InitAll(config); err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}

	// Start modules
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	// Create and start HTTP server
	addr := config.GetString("server.host") + ":" + config.GetString("server.port")
	srv := server.New(addr, registry, logger)

	// Start server in background
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("AetherLink server ready", zap.String("addr", addr))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	registry.StopAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("AetherLink server stopped")
}
