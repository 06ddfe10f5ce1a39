package main

import (
	"errors"
	"flag"
	"time"

	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

// Config controls a stress run. Values come from the environment first and
// command line flags override them.
type Config struct {
	Duration  time.Duration `config:"SCENE_STRESS_DURATION"`
	Entities  int           `config:"SCENE_STRESS_ENTITIES"`
	MaxDepth  int           `config:"SCENE_STRESS_MAX_DEPTH"`
	Workers   int           `config:"SCENE_STRESS_WORKERS"`
	Producers int           `config:"SCENE_STRESS_PRODUCERS"`
	Churn     int           `config:"SCENE_STRESS_CHURN"`
	Seed      uint64        `config:"SCENE_STRESS_SEED"`
	Profile   string        `config:"SCENE_STRESS_PROFILE"`
	LogLevel  string        `config:"SCENE_STRESS_LOG_LEVEL"`
	Pretty    bool          `config:"SCENE_STRESS_PRETTY"`

	GCPauseMetrics bool `config:"SCENE_STRESS_GC_PAUSE_METRICS"`
}

func defaultConfig() Config {
	return Config{
		Duration:  10 * time.Second,
		Entities:  10000,
		MaxDepth:  6,
		Workers:   1,
		Producers: 2,
		Churn:     32,
		Seed:      1,
		LogLevel:  "warn",
	}
}

// loadConfig reads the environment and then parses args over it.
func loadConfig(args []string) (Config, error) {
	cfg := defaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "read environment")
	}

	fs := flag.NewFlagSet("scene-stress", flag.ContinueOnError)
	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "The total duration the test should run for.")
	fs.IntVar(&cfg.Entities, "entities", cfg.Entities, "The initial number of entities to create.")
	fs.IntVar(&cfg.MaxDepth, "max-depth", cfg.MaxDepth, "The deepest level of the generated hierarchy.")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Entities processed in parallel per tick.")
	fs.IntVar(&cfg.Producers, "producers", cfg.Producers, "Goroutines adding and destroying components concurrently.")
	fs.IntVar(&cfg.Churn, "churn", cfg.Churn, "Random hierarchy operations per tick.")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed.")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "Write a profile: cpu or mem.")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level.")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Human readable logs.")
	fs.BoolVar(&cfg.GCPauseMetrics, "gc-pause-metrics", cfg.GCPauseMetrics, "Enable detailed GC pause metrics in the report.")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, err
		}
		return cfg, eris.Wrap(err, "parse flags")
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Duration <= 0:
		return eris.Errorf("duration must be positive, got %s", c.Duration)
	case c.Entities < 1:
		return eris.Errorf("entities must be at least 1, got %d", c.Entities)
	case c.MaxDepth < 1:
		return eris.Errorf("max-depth must be at least 1, got %d", c.MaxDepth)
	case c.Workers < 1:
		return eris.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.Producers < 0 || c.Churn < 0:
		return eris.New("producers and churn cannot be negative")
	case c.Profile != "" && c.Profile != "cpu" && c.Profile != "mem":
		return eris.Errorf("unknown profile %q", c.Profile)
	}
	return nil
}
