// cmd/simulate/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-asteroids/pkg/config"
	"github.com/opd-ai/go-asteroids/pkg/engine"
	"github.com/opd-ai/go-asteroids/pkg/health"
	"github.com/opd-ai/go-asteroids/pkg/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command with args and returns the process exit code, so
// that deferred cleanup completes before the process exits.
func run(args []string) int {
	logger := logging.NewLogger()

	flags := flag.NewFlagSet("simulate", flag.ContinueOnError)
	configPaths := flags.String("config", "", "Comma-separated scenario files (JSON or YAML); the default duel when empty")
	defaultPath := flags.String("default", "", "Write the default scenario to this path and exit")
	duration := flags.Float64("duration", 0, "Override the simulated duration of every scenario, in seconds")
	parallel := flags.Int("parallel", runtime.NumCPU(), "Maximum number of scenarios run at once")
	healthAddr := flags.String("health-addr", "", "Serve /healthz and /readyz on this address while running")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *defaultPath != "" {
		if err := config.SaveConfig(config.DefaultConfig(), *defaultPath); err != nil {
			logger.Error(ctx, "Failed to create default scenario", err, "config_path", *defaultPath)
			return 1
		}
		logger.Info(ctx, "Created default scenario file", "config_path", *defaultPath)
		return 0
	}

	scenarios, err := loadScenarios(*configPaths, *duration)
	if err != nil {
		logger.Error(ctx, "Failed to load scenarios", err)
		return 1
	}

	sims := make([]*engine.Simulation, len(scenarios))
	for i, cfg := range scenarios {
		if sims[i], err = engine.NewSimulation(cfg, logger); err != nil {
			logger.Error(ctx, "Failed to build scenario", err, "scenario", cfg.Name)
			return 1
		}
	}

	if *healthAddr != "" {
		server := startHealthServer(ctx, logger, *healthAddr, sims)
		defer shutdownHealthServer(logger, server)
	}

	if err := runAll(ctx, logger, sims, *parallel); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		return 1
	}
	return 0
}

// loadScenarios reads every listed scenario, applies the environment
// overrides and the duration flag, or falls back to the default duel.
func loadScenarios(paths string, duration float64) ([]*config.SimulationConfig, error) {
	var scenarios []*config.SimulationConfig
	for _, path := range strings.Split(paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, cfg)
	}
	if len(scenarios) == 0 {
		scenarios = append(scenarios, config.DefaultConfig())
	}

	for _, cfg := range scenarios {
		if duration > 0 {
			cfg.Run.Duration = duration
		}
		if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", cfg.Name, err)
		}
	}
	return scenarios, nil
}

// runAll runs the simulations concurrently, each world owned by a single
// goroutine. The first failure cancels the others.
func runAll(ctx context.Context, logger *logging.Logger, sims []*engine.Simulation, parallel int) error {
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}

	for _, sim := range sims {
		sim := sim
		g.Go(func() error {
			runCtx := logging.WithCorrelationID(ctx, uuid.NewString())
			if err := sim.Run(runCtx); err != nil {
				return logging.WrapError(err, "scenario %s", sim.Config.Name)
			}
			report(runCtx, logger, sim)
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Warn(context.Background(), "Simulation interrupted")
		return nil
	}
	return err
}

func report(ctx context.Context, logger *logging.Logger, sim *engine.Simulation) {
	stats := sim.Stats()
	snap := sim.Snapshot()
	logger.Info(ctx, "Scenario finished",
		"scenario", sim.Config.Name,
		"elapsed", stats.Elapsed,
		"ticks", stats.Ticks,
		"object_collisions", stats.ObjectCollisions,
		"boundary_collisions", stats.BoundaryCollisions,
		"bullets_fired", stats.BulletsFired,
		"destroyed", stats.Destroyed,
		"bodies", stats.Entities,
		"survivors", strings.Join(sim.Survivors(), ","),
		"digest", fmt.Sprintf("%016x", snap.Digest()),
	)
}

// startHealthServer reports each simulation as ready once it has ended
func startHealthServer(ctx context.Context, logger *logging.Logger, addr string, sims []*engine.Simulation) *http.Server {
	checker := health.NewHealthChecker()
	for _, sim := range sims {
		sim := sim
		checker.AddCheck(health.CheckFunc{
			CheckName: "scenario_" + sim.Config.Name,
			Fn: func(context.Context) error {
				if status := sim.Status(); status != engine.StatusEnded {
					return fmt.Errorf("simulation is %s at %.3gs", status, sim.Elapsed())
				}
				return nil
			},
		})
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return server
}

func shutdownHealthServer(logger *logging.Logger, server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}
}
