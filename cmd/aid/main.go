package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robinklaassen/artistic-intelligence-data/collect"
	"github.com/robinklaassen/artistic-intelligence-data/config"
	"github.com/robinklaassen/artistic-intelligence-data/geo"
	"github.com/robinklaassen/artistic-intelligence-data/query"
	"github.com/robinklaassen/artistic-intelligence-data/serve"
	"github.com/robinklaassen/artistic-intelligence-data/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: search working directory)")
	mode := flag.String("mode", "all", "collect|serve|all")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(*configPath, *mode, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(configPath, mode string, log *slog.Logger) error {
	if mode != "collect" && mode != "serve" && mode != "all" {
		return fmt.Errorf("unknown mode %q", mode)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info("store ready", "backend", cfg.Storage.Backend)

	scaler := geo.Scaler{OriginX: cfg.Geo.OriginX, OriginY: cfg.Geo.OriginY, Span: cfg.Geo.Span}

	var hub *serve.Hub
	if mode != "collect" {
		hub = serve.NewHub(scaler, log)
	}

	var scheduler *collect.Scheduler
	if mode != "serve" {
		collectors := buildCollectors(cfg, st, hub, log)
		if len(collectors) == 0 {
			log.Warn("no collectors enabled")
		} else {
			scheduler = collect.NewScheduler(log, collectors...)
			scheduler.Start(ctx)
			for _, c := range collectors {
				log.Info("collector scheduled", "collector", c.Name(), "interval", c.Interval())
			}
		}
	}

	var srv *http.Server
	serverErr := make(chan error, 1)
	if mode != "collect" {
		engine := query.NewEngine(st, scaler, cfg.Granularity(), loc, log)
		srv = serve.New(serve.Options{
			Port:       cfg.Server.Port,
			APIKey:     cfg.APIKey(),
			DefaultLoc: loc,
		}, engine, hub, log)
		go func() {
			log.Info("http server listening", "addr", srv.Addr)
			serverErr <- srv.ListenAndServe()
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	if scheduler != nil {
		if err := scheduler.Stop(shutdownGrace); err != nil {
			log.Warn("scheduler stop", "err", err)
		}
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", "err", err)
		}
	}
	log.Info("stopped")
	return nil
}

// openStore builds the configured sample store. The returned closer is a
// no-op for backends without a connection to release.
func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), func() {}, nil
	case "postgres":
		pg, err := store.OpenPostgres(os.Getenv(cfg.Postgres.DSNEnv), 5, 2*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() {}, nil
	case "influx":
		ix, err := store.OpenInflux(ctx, store.InfluxOptions{
			URL:    cfg.Influx.URL,
			Token:  os.Getenv(cfg.Influx.TokenEnv),
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return ix, ix.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func buildCollectors(cfg config.AppConfig, st store.Store, hub *serve.Hub, log *slog.Logger) []collect.Collector {
	// A typed nil hub must not become a non-nil publisher interface.
	var pub collect.Publisher
	if hub != nil {
		pub = hub
	}

	var collectors []collect.Collector
	if cfg.Collect.Trains.Enabled {
		collectors = append(collectors, collect.NewTrainCollector(cfg.Collect.Trains, cfg.Granularity(), st, pub, log))
	}
	if cfg.Collect.Buses.Enabled {
		collectors = append(collectors, collect.NewBusCollector(cfg.Collect.Buses, cfg.Granularity(), st, pub, log))
	}
	return collectors
}
