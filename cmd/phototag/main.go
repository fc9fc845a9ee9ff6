// Command phototag runs the photo cataloging engine: it loads config,
// resolves app paths, opens the catalog database, brings up the
// inference engine, and serves the command/progress surface over HTTP
// and WebSocket until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/your-org/phototag/internal/api"
	"github.com/your-org/phototag/internal/api/ws"
	"github.com/your-org/phototag/internal/catalogstore"
	"github.com/your-org/phototag/internal/config"
	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/internal/jobmanager"
	"github.com/your-org/phototag/internal/paths"
	"github.com/your-org/phototag/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	configureLogging(cfg.Logging)

	appPaths, err := paths.Discover(cfg.Paths.DataDir, cfg.Paths.ModelsDir, cfg.Paths.BinDir)
	if err != nil {
		slog.Error("resolve app paths", "error", err)
		os.Exit(1)
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = appPaths.DBPath
	}
	store, err := catalogstore.Open(dbPath, cfg.Database.MaxConns)
	if err != nil {
		slog.Error("open catalog database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := buildEngine(cfg, appPaths)
	defer engine.Close()

	thresholds := thresholdsFromConfig(cfg.Inference)
	pCfg := pipeline.Config{
		ExifWorkers:       cfg.Pipeline.ExifWorkers,
		RenditionWorkers:  cfg.Pipeline.RenditionWorkers,
		HashWorkers:       cfg.Pipeline.HashWorkers,
		TagWorkers:        cfg.Pipeline.TagWorkers,
		EmbedWorkers:      cfg.Pipeline.EmbedWorkers,
		ExifQueueCap:      cfg.Pipeline.ExifQueueCap,
		RenditionQueueCap: cfg.Pipeline.ThumbQueueCap,
		HashQueueCap:      cfg.Pipeline.HashQueueCap,
		TagQueueCap:       cfg.Pipeline.TagQueueCap,
		EmbedQueueCap:     cfg.Pipeline.EmbedQueueCap,
	}
	jobs := jobmanager.New(store, engine, appPaths, pCfg, thresholds)

	hub := ws.NewHub()
	go hub.Run()

	router := api.NewRouter(api.RouterConfig{
		Store:      store,
		Engine:     engine,
		Jobs:       jobs,
		Hub:        hub,
		Thresholds: func() inference.Thresholds { return thresholds },
	})

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func buildEngine(cfg *config.Config, appPaths *paths.AppPaths) *inference.Engine {
	if !cfg.Inference.EnableONNX {
		slog.Info("onnx disabled, running with heuristic tagging only")
		return inference.NewEngine(inference.DevicePreference(cfg.Inference.DevicePreference))
	}

	if err := inference.EnvironmentInit(); err != nil {
		slog.Warn("onnx environment init failed, falling back to heuristic tagging", "error", err)
		return inference.NewEngine(inference.DevicePreference(cfg.Inference.DevicePreference))
	}
	inference.SetThreadConfig(cfg.Inference.IntraOpThreads, cfg.Inference.InterOpThreads)

	engine := inference.NewEngine(inference.DevicePreference(cfg.Inference.DevicePreference))
	engine.LoadModels(
		appPaths.ResolveModel(cfg.Inference.SceneModel),
		appPaths.ResolveModel(cfg.Inference.DetectionModel),
		appPaths.ResolveModel(cfg.Inference.FaceModel),
		0,
	)
	return engine
}

func thresholdsFromConfig(ic config.InferenceConfig) inference.Thresholds {
	return inference.Thresholds{
		PrimaryThreshold:    ic.PrimaryThreshold,
		SecondaryThreshold:  ic.SecondaryThreshold,
		DetectionConfidence: ic.DetectionConfidence,
		DetectionIOU:        ic.DetectionIOU,
		FaceMinScore:        ic.FaceMinScore,
	}
}

func configureLogging(lc config.LoggingConfig) {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
