package main

import (
	"sync/atomic"

	"github.com/plus3/scenery/ecs"
)

// HookCounts tallies component hooks across a run. Workers may run hooks for
// different entities at the same time.
type HookCounts struct {
	Loads         atomic.Int64
	Retries       atomic.Int64
	Failures      atomic.Int64
	Activations   atomic.Int64
	Deactivations atomic.Int64
	Unloads       atomic.Int64
}

// HookTotals is a plain copy of HookCounts.
type HookTotals struct {
	Loads         int64
	Retries       int64
	Failures      int64
	Activations   int64
	Deactivations int64
	Unloads       int64
}

func (h *HookCounts) Snapshot() HookTotals {
	return HookTotals{
		Loads:         h.Loads.Load(),
		Retries:       h.Retries.Load(),
		Failures:      h.Failures.Load(),
		Activations:   h.Activations.Load(),
		Deactivations: h.Deactivations.Load(),
		Unloads:       h.Unloads.Load(),
	}
}

// tracked counts every hook it sees into hooks, when set.
type tracked struct {
	ecs.BaseComponent
	hooks *HookCounts
}

func (t *tracked) OnLoad(*ecs.Entity) (bool, bool) {
	t.count(func(h *HookCounts) { h.Loads.Add(1) })
	return true, false
}

func (t *tracked) OnActivate(*ecs.Entity) {
	t.count(func(h *HookCounts) { h.Activations.Add(1) })
}

func (t *tracked) OnDeactivate(*ecs.Entity) {
	t.count(func(h *HookCounts) { h.Deactivations.Add(1) })
}

func (t *tracked) OnUnload(*ecs.Entity) {
	t.count(func(h *HookCounts) { h.Unloads.Add(1) })
}

func (t *tracked) count(fn func(h *HookCounts)) {
	if t.hooks != nil {
		fn(t.hooks)
	}
}

type Transform struct {
	tracked
	X, Y float64
}

func (t *Transform) Clone() ecs.Component {
	return &Transform{tracked: tracked{hooks: t.hooks}, X: t.X, Y: t.Y}
}

type Velocity struct {
	tracked
	DX, DY float64
}

// Asset finishes loading after ReadyAfter attempts.
type Asset struct {
	tracked
	ReadyAfter int
	attempts   int
}

func (a *Asset) OnLoad(e *ecs.Entity) (bool, bool) {
	a.attempts++
	if a.attempts < a.ReadyAfter {
		a.count(func(h *HookCounts) { h.Retries.Add(1) })
		return false, true
	}
	a.attempts = 0
	return a.tracked.OnLoad(e)
}

// Corrupt never loads.
type Corrupt struct {
	tracked
}

func (c *Corrupt) OnLoad(*ecs.Entity) (bool, bool) {
	c.count(func(h *HookCounts) { h.Failures.Add(1) })
	return false, false
}

// Marker is added and destroyed by the producer goroutines.
type Marker struct {
	tracked
}

func registerComponents(registry *ecs.ComponentRegistry) error {
	for _, fn := range []func(*ecs.ComponentRegistry) error{
		register[*Transform]("Transform"),
		register[*Velocity]("Velocity"),
		register[*Asset]("Asset"),
		register[*Corrupt]("Corrupt"),
		register[*Marker]("Marker"),
	} {
		if err := fn(registry); err != nil {
			return err
		}
	}
	return nil
}

func register[T ecs.Component](name string) func(*ecs.ComponentRegistry) error {
	return func(registry *ecs.ComponentRegistry) error {
		_, err := ecs.RegisterComponent[T](registry, name)
		return err
	}
}
