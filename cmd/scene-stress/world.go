package main

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/plus3/scenery/ecs"
)

// World is the scene under test plus the bookkeeping the stress systems share.
type World struct {
	Scene *ecs.EntityScene
	Hooks *HookCounts

	rng      *rand.Rand
	maxDepth int
	ids      []ecs.EntityId
	initial  []*ecs.Entity
}

func newWorld(scene *ecs.EntityScene, seed uint64, maxDepth int) *World {
	return &World{
		Scene:    scene,
		Hooks:    &HookCounts{},
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		maxDepth: maxDepth,
	}
}

// Populate creates count entities. Each one is parented under a random earlier
// entity whose depth allows it, or left at the top level, and receives a random
// component set.
func (w *World) Populate(count int) {
	depths := make([]int, 0, count)
	for i := 0; i < count; i++ {
		e := w.Scene.CreateEntity("node")
		depth := 0
		if i > 0 && w.rng.IntN(4) != 0 {
			p := w.rng.IntN(i)
			if depths[p]+1 < w.maxDepth {
				e.SetParent(w.initial[p])
				depth = depths[p] + 1
			}
		}
		for _, c := range w.randomComponents() {
			e.AddComponent(c)
		}
		if w.rng.IntN(10) == 0 {
			e.SetActive(false)
		}
		depths = append(depths, depth)
		w.initial = append(w.initial, e)
		w.ids = append(w.ids, e.Id())
	}
}

func (w *World) randomComponents() []ecs.Component {
	base := tracked{hooks: w.Hooks}
	components := []ecs.Component{
		&Transform{tracked: base, X: w.rng.Float64() * 100, Y: w.rng.Float64() * 100},
	}
	if w.rng.IntN(2) == 0 {
		components = append(components, &Velocity{tracked: base, DX: w.rng.Float64() - 0.5, DY: w.rng.Float64() - 0.5})
	}
	if w.rng.IntN(3) == 0 {
		components = append(components, &Asset{tracked: base, ReadyAfter: 1 + w.rng.IntN(4)})
	}
	if w.rng.IntN(50) == 0 {
		components = append(components, &Corrupt{tracked: base})
	}
	return components
}

// MotionSystem integrates velocities into transforms.
type MotionSystem struct {
	Movers ecs.Query `ecs:"Transform,Velocity"`
}

func (m *MotionSystem) Execute(frame *ecs.UpdateFrame) {
	for e := range m.Movers.Iter() {
		t, _ := ecs.GetComponent[*Transform](e)
		v, _ := ecs.GetComponent[*Velocity](e)
		t.X += v.DX * frame.DeltaTime
		t.Y += v.DY * frame.DeltaTime
	}
}

// ChurnStats counts the random operations applied by ChurnSystem.
type ChurnStats struct {
	Toggles   int64
	Reparents int64
	Reloads   int64
	Destroys  int64
	Spawns    int64
	Clones    int64
}

// ChurnSystem applies Ops random hierarchy and lifecycle operations per tick.
// Activity and parents change immediately; destroys and spawns go through the
// frame Commands.
type ChurnSystem struct {
	World *World
	Ops   int
	Stats ChurnStats
}

func (c *ChurnSystem) Execute(frame *ecs.UpdateFrame) {
	w := c.World
	for range c.Ops {
		e := w.pick()
		if e == nil {
			return
		}

		switch w.rng.IntN(10) {
		case 0, 1, 2, 3:
			e.SetActive(!e.IsActive())
			c.Stats.Toggles++
		case 4, 5:
			target := w.pick()
			if target == nil || target == e || isAncestor(e, target) || depthOf(target)+1 >= w.maxDepth {
				e.RemoveParent()
			} else {
				e.SetParent(target)
			}
			c.Stats.Reparents++
		case 6:
			if state, ok := ecs.StateOf[*Asset](e); ok && state.Loaded() {
				ecs.ReloadComponent[*Asset](e)
				c.Stats.Reloads++
			}
		case 7:
			frame.Commands.DestroyEntity(e.Id())
			c.Stats.Destroys++
		case 8:
			components := w.randomComponents()
			frame.Commands.CreateEntity("spawned", func(spawned *ecs.Entity) {
				for _, component := range components {
					spawned.AddComponent(component)
				}
				w.ids = append(w.ids, spawned.Id())
			})
			c.Stats.Spawns++
		case 9:
			if clone := frame.Scene.CloneEntity(e); clone != nil {
				w.ids = append(w.ids, clone.Id())
				c.Stats.Clones++
			}
		}
	}
}

// pick returns a random live entity, dropping the ids of destroyed ones.
func (w *World) pick() *ecs.Entity {
	for len(w.ids) > 0 {
		i := w.rng.IntN(len(w.ids))
		if e := w.Scene.GetEntity(w.ids[i]); e != nil {
			return e
		}
		last := len(w.ids) - 1
		w.ids[i] = w.ids[last]
		w.ids = w.ids[:last]
	}
	return nil
}

// isAncestor reports whether ancestor is e or one of e's parents.
func isAncestor(ancestor, e *ecs.Entity) bool {
	for p := e; p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

func depthOf(e *ecs.Entity) int {
	depth := 0
	for p := e.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return depth
}

// RunProducers starts n goroutines that add and destroy Marker components on
// the initial entities until ctx is done. Each goroutine owns every n-th
// entity. The returned function waits for them and reports the operation count.
func (w *World) RunProducers(ctx context.Context, n int, seed uint64) func() int64 {
	var (
		wg  sync.WaitGroup
		ops atomic.Int64
	)
	for p := 0; p < n; p++ {
		var owned []*ecs.Entity
		for i := p; i < len(w.initial); i += n {
			owned = append(owned, w.initial[i])
		}
		if len(owned) == 0 {
			continue
		}
		rng := rand.New(rand.NewPCG(seed, uint64(p)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				e := owned[rng.IntN(len(owned))]
				if e.IsDestroyed() {
					continue
				}
				if _, ok := ecs.GetComponent[*Marker](e); ok {
					ecs.DestroyComponent[*Marker](e)
				} else {
					e.AddComponent(&Marker{tracked{hooks: w.Hooks}})
				}
				ops.Add(1)
			}
		}()
	}
	return func() int64 {
		wg.Wait()
		return ops.Load()
	}
}

// Verification summarizes the final state of the scene.
type Verification struct {
	Entities   int
	Components int
	Active     int
	Inactive   int
	Pending    int
	Failed     int
	Violations []string
}

func (v Verification) OK() bool {
	return len(v.Violations) == 0
}

// Verify checks that every component state agrees with its entity's activity,
// that child lists partition children by their own flag, and that the hook
// counts balance against the loaded components.
func (w *World) Verify() Verification {
	var v Verification
	violate := func(e *ecs.Entity, msg string) {
		if len(v.Violations) < 20 {
			v.Violations = append(v.Violations, e.String()+": "+msg)
		}
	}

	for e := range w.Scene.Entities() {
		v.Entities++
		enabled := e.IsActiveInHierarchy()
		for _, info := range e.Components() {
			v.Components++
			switch info.State {
			case ecs.StateActive:
				v.Active++
				if !enabled {
					violate(e, info.Name+" active under an inactive hierarchy")
				}
			case ecs.StateInactive:
				v.Inactive++
				if enabled {
					violate(e, info.Name+" inactive on an active entity")
				}
			case ecs.StateUnloaded, ecs.StateUnloadedInactive:
				v.Pending++
				if enabled != (info.State == ecs.StateUnloaded) {
					violate(e, info.Name+" pending state disagrees with activity")
				}
			case ecs.StateLoadFailed:
				v.Failed++
			}
		}
		for _, child := range e.Children() {
			if !child.IsActive() || child.Parent() != e {
				violate(child, "misplaced in active children")
			}
		}
		for _, child := range e.InactiveChildren() {
			if child.IsActive() || child.Parent() != e {
				violate(child, "misplaced in inactive children")
			}
		}
	}

	totals := w.Hooks.Snapshot()
	if got := totals.Activations - totals.Deactivations; got != int64(v.Active) {
		v.Violations = append(v.Violations, "activations minus deactivations does not match active components")
	}
	if got := totals.Loads - totals.Unloads; got != int64(v.Active+v.Inactive) {
		v.Violations = append(v.Violations, "loads minus unloads does not match loaded components")
	}
	return v
}
