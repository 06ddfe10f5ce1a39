package ecs

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Ticks           int64
	// ProcessedEntities counts ProcessComponents calls made by the scheduler.
	ProcessedEntities int64
	// PendingEntities is the number of entities still waiting after the last tick.
	PendingEntities int
	LastProcessTime time.Duration
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

// Scheduler drives one scene: each tick processes pending components, runs the
// systems in registration order and flushes the scene Commands.
type Scheduler struct {
	scene       *EntityScene
	systems     []System
	systemStats []*systemStatsInternal

	ticks           int64
	processed       atomic.Int64
	lastProcessTime time.Duration
}

func newScheduler(scene *EntityScene) *Scheduler {
	return &Scheduler{
		scene:   scene,
		systems: make([]System, 0),
	}
}

var queryType = reflect.TypeFor[Query]()

// Register adds a system to the scheduler and initializes its tagged Query fields.
func (s *Scheduler) Register(system System) error {
	if err := s.initializeQueries(system); err != nil {
		return err
	}
	s.systems = append(s.systems, system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}

	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        systemType.Name(),
		minDuration: time.Duration(1<<63 - 1),
	})
	return nil
}

// Unregister removes a system. It reports whether the system was registered.
func (s *Scheduler) Unregister(system System) bool {
	i := slices.Index(s.systems, system)
	if i < 0 {
		return false
	}
	s.systems = slices.Delete(s.systems, i, i+1)
	s.systemStats = slices.Delete(s.systemStats, i, i+1)
	return true
}

func (s *Scheduler) initializeQueries(system System) error {
	systemValue := reflect.ValueOf(system)
	if systemValue.Kind() == reflect.Ptr {
		systemValue = systemValue.Elem()
	}

	if systemValue.Kind() != reflect.Struct {
		return nil
	}

	systemType := systemValue.Type()
	registry := s.scene.module.registry

	for i := 0; i < systemValue.NumField(); i++ {
		field := systemValue.Field(i)
		fieldType := systemType.Field(i)

		if !field.CanSet() || field.Type() != queryType {
			continue
		}

		tag, ok := fieldType.Tag.Lookup("ecs")
		if !ok {
			continue
		}

		var names []string
		for _, name := range strings.Split(tag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		mask, err := registry.MaskOfNames(names...)
		if err != nil {
			return eris.Wrapf(err, "query field %s.%s", systemType.Name(), fieldType.Name)
		}

		field.Addr().Interface().(*Query).Init(s.scene, mask)
	}
	return nil
}

// Once runs one tick with the given delta time.
func (s *Scheduler) Once(dt float64) {
	s.ticks++
	s.processPending()

	frame := newUpdateFrame(dt, s.scene)

	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.lastDuration = duration
		stats.totalDuration += duration

		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}
	}

	frame.Commands.Flush(s.scene)
}

// processPending gives every queued entity one ProcessComponents pass. Entities
// left with pending components are queued for the next tick.
func (s *Scheduler) processPending() {
	start := time.Now()
	defer func() { s.lastProcessTime = time.Since(start) }()

	queue := s.scene.takeProcessQueue()
	if len(queue) == 0 {
		return
	}

	process := func(e *Entity) {
		if e.IsDestroyed() {
			return
		}
		s.processed.Add(1)
		if !e.ProcessComponents() && !e.IsDestroyed() {
			s.scene.enqueueProcess(e)
		}
	}

	workers := s.scene.module.workers
	if workers <= 1 || len(queue) == 1 {
		for _, e := range queue {
			process(e)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, e := range queue {
		g.Go(func() error {
			process(e)
			return nil
		})
	}
	_ = g.Wait()
}

// Run executes ticks at the given interval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			s.Once(dt)
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount:       len(s.systems),
		Ticks:             s.ticks,
		ProcessedEntities: s.processed.Load(),
		PendingEntities:   s.scene.PendingEntities(),
		LastProcessTime:   s.lastProcessTime,
		Systems:           make([]SystemStats, len(s.systemStats)),
	}

	var totalExecs int64
	for i, internal := range s.systemStats {
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
