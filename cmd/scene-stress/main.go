// Command scene-stress builds a large random scene hierarchy and drives it
// while toggling activity, reparenting, reloading, spawning and destroying at
// random, then checks the lifecycle invariants and prints a markdown report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/scenery/ecs"
	"github.com/rs/zerolog"
)

// maxDrainTicks bounds the ticks run after the producers stop so async loads
// can settle.
const maxDrainTicks = 16

// errorCounter counts error level events written by the module logger.
type errorCounter struct {
	n atomic.Int64
}

func (c *errorCounter) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level >= zerolog.ErrorLevel {
		c.n.Add(1)
	}
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := newLogger(cfg)

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	report, err := run(context.Background(), cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("stress test failed")
		return
	}

	// 4. Generate Report to Console
	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Error().Err(err).Msg("generate report")
		return
	}
	fmt.Println("--- End of Report ---")

	if !report.Verification.OK() {
		logger.Warn().Int("violations", len(report.Verification.Violations)).Msg("invariants violated")
	}
	logger.Info().Msg("stress test complete")
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	var out io.Writer = os.Stderr
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// run executes one stress run and returns its report.
func run(ctx context.Context, cfg Config, logger zerolog.Logger) (*Report, error) {
	logger.Info().Msg("starting scene stress test")

	// 1. Setup Registry, Module, Scene and Systems
	registry := ecs.NewComponentRegistry()
	if err := registerComponents(registry); err != nil {
		return nil, err
	}
	errs := &errorCounter{}
	module := ecs.NewSystemModule(registry,
		ecs.WithLogger(logger.Hook(errs)),
		ecs.WithWorkers(cfg.Workers),
	)
	scene := module.CreateScene("stress")
	world := newWorld(scene, cfg.Seed, cfg.MaxDepth)
	churn := &ChurnSystem{World: world, Ops: cfg.Churn}
	for _, system := range []ecs.System{&MotionSystem{}, churn} {
		if err := scene.AddSystem(system); err != nil {
			return nil, err
		}
	}

	// 2. Populate the scene
	logger.Info().Int("entities", cfg.Entities).Msg("populating scene")
	world.Populate(cfg.Entities)
	logger.Info().Int("pending", scene.PendingEntities()).Msg("population complete")

	// 3. Run the simulation loop
	report := &Report{
		Config: cfg,
		UpdateTime: Stats{
			Samples: make([]time.Duration, 0),
		},
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", cfg.Duration).Msg("running simulation")
	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	waitProducers := world.RunProducers(runCtx, cfg.Producers, cfg.Seed)

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-runCtx.Done():
			break Loop
		default:
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()

			updateStart := time.Now()
			module.Update(deltaTime.Seconds())
			report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
			report.TotalUpdates++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.ProducerOps = waitProducers()

	// settle: no more churn, let pending loads finish
	churn.Ops = 0
	for report.DrainTicks < maxDrainTicks && scene.PendingEntities() > 0 {
		module.Update(0)
		report.DrainTicks++
	}

	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)

	report.Scheduler = scene.Scheduler().GetStats()
	report.Hooks = world.Hooks.Snapshot()
	report.Churn = churn.Stats
	report.LoggedErrors = errs.n.Load()
	report.Verification = world.Verify()

	logger.Info().Int64("updates", report.TotalUpdates).Msg("simulation finished")
	return report, nil
}
