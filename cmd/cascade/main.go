package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/adapter"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/alerting"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/composer"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/config"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/domain"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/extractor"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/history"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/hub"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/logger"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/storage/sqlite"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/transport/rest"
	"github.com/tantulabs/cascade-hardware-monitor-sub000/internal/unified"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := sqlite.NewSqliteDB(cfg.DBPath, log)
	if err != nil {
		log.Error("sqlite: failed to connect", "error", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("sqlite: close failed", "error", err)
		}
	}()

	histStore := history.NewStore(cfg.HistoryRetention)
	normalizer := unified.NewNormalizer([]unified.Source{
		unified.NewHwmonSource(),
		unified.NewGopsutilSource(),
	}, log)

	// The resolver and the composer reference each other, so the
	// composer variable is bound after the hub is built.
	var comp *composer.Composer
	var evaluator *alerting.Evaluator

	resolve := func(ctx context.Context, resource string) (any, error) {
		switch resource {
		case "snapshot":
			if snap := comp.LastSnapshot(); snap != nil {
				return snap, nil
			}
			return comp.Poll(ctx), nil
		case "readings":
			snap := comp.LastSnapshot()
			if snap == nil {
				snap = comp.Poll(ctx)
			}
			return extractor.Extract(snap), nil
		case "history":
			return histStore.Query(domain.HistoryQuery{}), nil
		case "stats":
			return histStore.Stats(), nil
		case "unified":
			return normalizer.Collect(ctx), nil
		case "alerts":
			return evaluator.List(), nil
		case "events":
			return evaluator.Events(0), nil
		}
		return nil, fmt.Errorf("unknown resource %q", resource)
	}

	distHub := hub.New(cfg.AuthEnabled, cfg.AuthKey, resolve, log)
	go distHub.Run()
	defer distHub.Close()

	alertRepo := sqlite.NewAlertRepository(db, cfg.AlertEventCap)
	evaluator = alerting.NewEvaluator(alertRepo, alerting.NewDispatcher(log), distHub.Broadcast, cfg.AlertEventCap, log)
	if err := evaluator.Restore(ctx); err != nil {
		log.Error("alerting: restore failed", "error", err)
		return
	}

	comp = composer.New(adapter.Defaults(log), cfg.EnabledCategories, cfg.PollInterval, composer.Sinks{
		Snapshot: func(snap *domain.Snapshot) {
			distHub.Broadcast(domain.WsChannelSnapshot, snap)
		},
		Readings: func(readings []domain.SensorReading) {
			histStore.IngestReadings(readings)
			evaluator.Evaluate(readings)
			distHub.Broadcast(domain.WsChannelReadings, readings)
		},
	}, log)
	comp.Start()
	defer comp.Stop()

	router := rest.NewRouter(cfg, &rest.RouterDeps{
		WS:       hub.NewHandler(distHub, cfg.AllowedOrigins, log),
		Snapshot: rest.NewSnapshotHandler(comp),
		History:  rest.NewHistoryHandler(histStore),
		Alert:    rest.NewAlertHandler(evaluator),
		Unified:  rest.NewUnifiedHandler(normalizer),
	})

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "address", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown error", "error", err)
		}

	case err := <-errCh:
		log.Error("http server error", "error", err)
	}

	log.Info("server stopped")
}
