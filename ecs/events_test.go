package ecs_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/plus3/scenery/ecs"
	"github.com/stretchr/testify/assert"
)

func TestEventBus(t *testing.T) {
	bus := ecs.NewEventBus()
	var got []string

	first := ecs.Subscribe(bus, func(ev ecs.HierarchyChanged) { got = append(got, "first") })
	ecs.Subscribe(bus, func(ev ecs.HierarchyChanged) { got = append(got, "second") })
	ecs.Subscribe(bus, func(ev ecs.EntityCreated) { got = append(got, "created") })

	ecs.Publish(bus, ecs.HierarchyChanged{})
	assert.Equal(t, []string{"first", "second"}, got)

	got = nil
	bus.Unsubscribe(first)
	bus.Unsubscribe(first)
	ecs.Publish(bus, ecs.HierarchyChanged{})
	assert.Equal(t, []string{"second"}, got)
}

func TestEventBusConcurrentPublish(t *testing.T) {
	bus := ecs.NewEventBus()
	var mu sync.Mutex
	count := 0
	ecs.Subscribe(bus, func(ev ecs.ComponentPending) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				ecs.Publish(bus, ecs.ComponentPending{})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, count)
}

func TestSceneEvents(t *testing.T) {
	module, _ := newTestModule()
	bus := module.Events()
	var events []string
	record := func(format string, args ...any) {
		events = append(events, fmt.Sprintf(format, args...))
	}
	ecs.Subscribe(bus, func(ev ecs.SceneCreated) { record("scene created %s", ev.Scene.Name()) })
	ecs.Subscribe(bus, func(ev ecs.SceneDestroying) { record("scene destroying %s", ev.Scene.Name()) })
	ecs.Subscribe(bus, func(ev ecs.EntityCreated) { record("created %s", ev.Entity.Name()) })
	ecs.Subscribe(bus, func(ev ecs.EntityDestroying) { record("destroying %s", ev.Entity.Name()) })
	ecs.Subscribe(bus, func(ev ecs.ComponentPending) {
		record("pending %s", module.Registry().Name(ev.Type))
	})
	ecs.Subscribe(bus, func(ev ecs.ComponentAdded) {
		record("added %s", module.Registry().Name(ev.Type))
	})
	ecs.Subscribe(bus, func(ev ecs.ComponentRemoving) {
		record("removing %s", module.Registry().Name(ev.Type))
	})
	ecs.Subscribe(bus, func(ev ecs.ComponentRemoved) {
		record("removed %s", module.Registry().Name(ev.Type))
	})
	ecs.Subscribe(bus, func(ev ecs.EntityChanged) { record("changed %s %s", ev.Entity.Name(), ev.Mask) })
	ecs.Subscribe(bus, func(ev ecs.HierarchyChanged) { record("hierarchy") })

	scene := module.CreateScene("level")
	e := scene.CreateEntity("e")
	e.AddComponent(newPosition(nil, "pos"))
	e.ProcessComponents()
	child := scene.CreateEntity("child")
	child.SetParent(e)
	ecs.DestroyComponent[*Position](e)
	module.DestroyScene(scene.Id())

	assert.Equal(t, []string{
		"scene created level",
		"created e",
		"pending Position",
		"added Position",
		"changed e {0}",
		"created child",
		"hierarchy",
		"removing Position",
		"removed Position",
		"changed e {}",
		"scene destroying level",
		"destroying e",
		"hierarchy",
	}, events)
}
