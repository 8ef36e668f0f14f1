// Command worldsim runs the hearsay belief-propagation simulation and serves
// it over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/talgya/hearsay/internal/api"
	"github.com/talgya/hearsay/internal/config"
	"github.com/talgya/hearsay/internal/engine"
	"github.com/talgya/hearsay/internal/entropy"
	"github.com/talgya/hearsay/internal/persistence"
	"github.com/talgya/hearsay/internal/world"
)

func main() {
	configPath := flag.String("config", "configs/hearsay.yaml", "path to YAML config (empty for defaults)")
	seedFlag := flag.Uint64("seed", 0, "override the configured seed (0 keeps it)")
	flag.Parse()

	boot := bootLogger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		boot.Fatal("failed to load config", zap.String("path", *configPath), zap.Error(err))
	}
	if *seedFlag != 0 {
		cfg.Seed = *seedFlag
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	// ── Simulation ────────────────────────────────────────────────────
	rng, seed := entropy.Seeded(cfg.Seed)
	params := cfg.Params()
	sim, err := engine.NewSimulation(params, rng, logger.Named("sim"))
	if err != nil {
		logger.Fatal("failed to create simulation", zap.Error(err))
	}

	counts := sim.Grid.KindCounts()
	fields := []zap.Field{
		zap.Uint64("seed", seed),
		zap.Int("width", sim.Grid.Width),
		zap.Int("height", sim.Grid.Height),
		zap.Int("biomes", len(sim.Grid.Biomes)),
		zap.Int("agents", len(sim.Agents)),
	}
	for _, k := range world.Kinds {
		fields = append(fields, zap.Int(k.String(), counts[k]))
	}
	logger.Info("world generated", fields...)

	eng := engine.NewEngine(sim, logger.Named("engine"))
	eng.Interval = cfg.Interval()

	// ── Run history ───────────────────────────────────────────────────
	var (
		db    *persistence.DB
		runID string
	)
	if cfg.History.Path != "" {
		if dir := filepath.Dir(cfg.History.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Fatal("failed to create history directory", zap.String("dir", dir), zap.Error(err))
			}
		}
		db, err = persistence.Open(cfg.History.Path, logger.Named("history"))
		if err != nil {
			logger.Fatal("failed to open history database", zap.Error(err))
		}
		defer db.Close()

		run, err := db.StartRun(seed, params)
		if err != nil {
			logger.Fatal("failed to register run", zap.Error(err))
		}
		runID = run.ID
		eng.OnTick(db.Recorder(runID, cfg.History.EveryTicks))
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var srv *http.Server
	var apiServer *api.Server
	if cfg.Server.Port > 0 {
		if cfg.Server.AdminKey == "" {
			logger.Warn("HEARSAY_ADMIN_KEY not set, control endpoints are disabled")
		}
		apiServer = api.NewServer(eng, api.Options{
			AdminKey:     cfg.Server.AdminKey,
			ControlRPS:   cfg.Server.ControlRPS,
			ControlBurst: cfg.Server.ControlBurst,
			History:      db,
			RunID:        runID,
		}, logger.Named("api"))

		srv = &http.Server{
			Addr:              cfg.Addr(),
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP API starting", zap.String("addr", srv.Addr), zap.Bool("admin_auth", cfg.Server.AdminKey != ""))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed", zap.Error(err))
				eng.Stop()
			}
		}()
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					apiServer.CleanupLimiter(10 * time.Minute)
				case <-eng.Done():
					return
				}
			}
		}()
	} else {
		logger.Warn("HTTP API disabled (server.port = 0)")
	}

	// ── Start ─────────────────────────────────────────────────────────
	if cfg.Engine.AutoRun {
		eng.ToggleRun()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = eng.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine stopped with error", zap.Error(err))
	}

	if srv != nil {
		apiServer.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server forced to shutdown", zap.Error(err))
		}
	}

	var final engine.SimStats
	eng.Read(func(sim *engine.Simulation) { final = sim.Stats })
	logger.Info("simulation stopped",
		zap.Uint64("tick", final.Tick),
		zap.Int("population", final.Population),
		zap.Int("deaths", final.Deaths),
	)
}

// bootLogger is used until the configured logger exists.
func bootLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewExample()
	}
	return l
}

// newLogger builds a JSON production logger, or a console one at debug level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if level == "debug" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}
