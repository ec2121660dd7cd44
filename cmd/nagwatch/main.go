package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"nagwatch/internal/config"
	"nagwatch/internal/database"
	"nagwatch/internal/metrics"
	"nagwatch/internal/monitoring"
	"nagwatch/internal/nagios"
	"nagwatch/internal/status"
	"nagwatch/internal/web"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		info := web.CurrentBuildInfo()
		fmt.Printf("nagwatch %s\nCommit: %s\nBuilt: %s\nGo: %s\n", info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config_file":  *configFile,
		"port":         cfg.Server.Port,
		"status_file":  cfg.Nagios.StatusFile,
		"command_file": cfg.Nagios.CommandFile,
	}).Info("Starting nagwatch")

	store, err := database.NewBoltStore(cfg.Database.Path)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	metricsCollector := metrics.NewCollector(store)
	client := newClient(cfg, metricsCollector)

	webServer := web.NewServer(cfg, client, store, metricsCollector)
	engine := monitoring.NewEngine(cfg, client, store, metricsCollector)
	engine.SetBroadcaster(webServer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Start(ctx) })
	g.Go(func() error { return webServer.Run(ctx) })

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("Shutdown after failure")
		return
	}
	logrus.Info("Shutdown complete")
}

func newClient(cfg *config.Config, observer nagios.Observer) *nagios.Client {
	opts := []nagios.Option{
		nagios.WithObserver(observer),
		nagios.WithLogger(logrus.WithFields(logrus.Fields{
			"component":   "nagios",
			"status_file": cfg.Nagios.StatusFile,
		})),
	}
	if cfg.Nagios.SkipUnknownBlocks {
		opts = append(opts, nagios.WithReaderOptions(status.WithSkipUnknownBlocks()))
	}
	return nagios.New(
		nagios.FileSource(cfg.Nagios.StatusFile),
		nagios.FileSink(cfg.Nagios.CommandFile),
		cfg.Nagios.MaxCacheAge,
		opts...,
	)
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
