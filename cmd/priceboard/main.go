package main

import (
	"context"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PriceBoard/internal/config"
	"PriceBoard/internal/display"
	"PriceBoard/internal/interval"
	"PriceBoard/internal/model"
	"PriceBoard/internal/orchestrator"
	"PriceBoard/internal/provider"
	"PriceBoard/internal/recorder"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] PriceBoard starting...")

	// Optional .env for local development
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		log.Fatalf("[FATAL] create data dir: %v", err)
	}

	zone := interval.ZoneForArea(cfg.NordPool.Area)
	policy := provider.Policy(cfg.Classification.Policy)

	// Init provider
	var prov provider.Provider
	var source model.Source
	switch cfg.Source {
	case "tibber":
		prov = provider.NewTibberProvider(cfg.Tibber.APIURL, cfg.Tibber.APIToken, zone)
		source = model.SourceTibber
	case "mock":
		prov = &provider.MockProvider{Price: 1.0}
		source = model.SourceMock
	default:
		prov = provider.NewNordPoolProvider(
			cfg.NordPool.BaseURL, cfg.NordPool.Area, cfg.NordPool.Currency,
			cfg.NordPool.ResolutionMinutes, cfg.StorePath(), policy)
		source = model.SourceNordPool
	}
	log.Printf("[INFO] price source: %s area=%s", prov.Name(), cfg.NordPool.Area)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Storage.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := orchestrator.New(prov, display.NewConsoleDisplay(), rec, orchestrator.Options{
		FetchHour:         cfg.Schedule.FetchHour,
		FetchMinute:       cfg.Schedule.FetchMinute,
		RetryUnchanged:    time.Duration(cfg.Schedule.RetryMinutes) * time.Minute,
		RetryOnError:      time.Duration(cfg.Schedule.ErrorRetrySeconds) * time.Second,
		CachePath:         cfg.CachePath(),
		StorePath:         cfg.StorePath(),
		Policy:            policy,
		ResolutionMinutes: cfg.NordPool.ResolutionMinutes,
		Source:            source,
		Zone:              zone,
		ProbeAddr:         probeAddress(cfg),
		ProbeTimeout:      time.Duration(cfg.Network.TimeoutSeconds) * time.Second,
	})

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] shutdown signal received, stopping...")
		cancel()
	}()

	log.Println("[INFO] PriceBoard is running. Press Ctrl+C to stop.")
	if err := orch.Run(ctx); err != nil && err != context.Canceled {
		log.Printf("[ERROR] orchestrator: %v", err)
	}
	log.Println("[INFO] PriceBoard stopped")
}

// probeAddress derives the reachability probe target from the configured
// API endpoint unless set explicitly.
func probeAddress(cfg *config.Config) string {
	if cfg.Network.ProbeAddress != "" {
		return cfg.Network.ProbeAddress
	}
	raw := cfg.NordPool.BaseURL
	if cfg.Source == "tibber" {
		raw = cfg.Tibber.APIURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Host
	if u.Port() == "" {
		host += ":443"
	}
	return host
}
