package ecs_test

import (
	"testing"

	"github.com/plus3/scenery/ecs"
)

func BenchmarkCreateEntity(b *testing.B) {
	scene, _ := newTestScene()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.CreateEntity("bench")
	}
}

func BenchmarkAddAndProcess(b *testing.B) {
	scene, _ := newTestScene()
	entities := make([]*ecs.Entity, b.N)
	for i := range entities {
		entities[i] = scene.CreateEntity("bench")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := entities[i]
		e.AddComponent(newPosition(nil, "pos"))
		e.AddComponent(newVelocity(nil, "vel"))
		e.ProcessComponents()
	}
}

func BenchmarkSetActiveCascade(b *testing.B) {
	scene, _ := newTestScene()
	root := scene.CreateEntity("root")
	for i := 0; i < 100; i++ {
		child := scene.CreateEntity("child")
		child.SetParent(root)
		child.AddComponent(newPosition(nil, "pos"))
		child.ProcessComponents()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.SetActive(i%2 == 1)
	}
}

func BenchmarkQueryIter(b *testing.B) {
	scene, _ := newTestScene()
	for i := 0; i < 1000; i++ {
		e := scene.CreateEntity("bench")
		e.AddComponent(newPosition(nil, "pos"))
		if i%2 == 0 {
			e.AddComponent(newVelocity(nil, "vel"))
		}
	}
	scene.Update(0)
	mask, _ := scene.Module().Registry().MaskOfNames("Position", "Velocity")
	query := ecs.NewQuery(scene, mask)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range query.Iter() {
		}
	}
}

func BenchmarkSchedulerTick(b *testing.B) {
	scene, _ := newTestScene()
	scene.AddSystem(&MovementSystem{})
	for i := 0; i < 1000; i++ {
		e := scene.CreateEntity("bench")
		e.AddComponent(newPosition(nil, "pos"))
		e.AddComponent(newVelocity(nil, "vel"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scene.Update(1.0 / 60)
	}
}

func BenchmarkEntityRef(b *testing.B) {
	scene, _ := newTestScene()
	e := scene.CreateEntity("bench")
	ref := scene.CreateEntityRef(e.Id())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = scene.ResolveEntityRef(ref)
	}
}
