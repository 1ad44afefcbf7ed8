package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeTerminal/internal/catalog"
	"TradeTerminal/internal/collector"
	"TradeTerminal/internal/config"
	"TradeTerminal/internal/logger"
	"TradeTerminal/internal/notifier"
	"TradeTerminal/internal/recorder"
	"TradeTerminal/internal/scheduler"
	"TradeTerminal/internal/server"
	"TradeTerminal/internal/tradecal"
	"TradeTerminal/internal/ui"

	"go.uber.org/zap"
)

func main() {
	once := flag.Bool("once", false, "fetch one snapshot, print it and exit")
	flag.Parse()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal("load catalog", zap.Error(err))
	}

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "file":
		fetcher = collector.NewFileFetcher(cfg.DataSource.BatchFile)
	case "mock":
		fetcher = &collector.MockFetcher{Bars: 260}
	default:
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.Timeout, cfg.DataSource.Concurrency)
	}
	logger.Info("data source", zap.String("provider", fetcher.Name()))

	cal := tradecal.New(cfg.Schedule.MarketMIC)
	col := collector.NewCollector(fetcher, cat, cal, collector.DefaultParams(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		snap, err := col.Build(ctx, collector.Params{})
		if err != nil {
			logger.Fatal("build snapshot", zap.Error(err))
		}
		fmt.Println(ui.RenderSnapshot(snap))
		return
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	hub := server.NewHub()
	go hub.Run(ctx)
	srv := server.New(cfg.Server.Addr, cfg.Server.Debug, col, rec, hub)

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, col, sender, hub, rec, cal)
	sched.SkipClosedDays = cfg.Schedule.SkipClosedDays
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	go func() {
		if _, err := sched.RefreshNow(); err != nil {
			logger.Warn("initial refresh failed", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	logger.Info("trade terminal is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	logger.Info("trade terminal stopped")
}
