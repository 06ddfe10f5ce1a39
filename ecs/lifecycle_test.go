package ecs_test

import (
	"testing"

	"github.com/plus3/scenery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLifecycle(t *testing.T) {
	t.Run("add to active entity loads and activates", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("player")

		e.AddComponent(newPosition(log, "pos"))

		state, ok := ecs.StateOf[*Position](e)
		require.True(t, ok)
		assert.Equal(t, ecs.StateUnloaded, state)
		assert.Equal(t, 1, e.PendingCount())
		assert.True(t, e.ComponentMask().IsEmpty())

		assert.True(t, e.ProcessComponents())

		state, _ = ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateActive, state)
		assert.Equal(t, []string{"pos.load", "pos.activate"}, log.Calls())
		assert.True(t, e.ComponentMask().Has(typeOf[*Position](scene)))
		assert.Equal(t, 0, e.PendingCount())
	})

	t.Run("process with empty queue reports done", func(t *testing.T) {
		scene, _ := newTestScene()
		e := scene.CreateEntity("empty")
		assert.True(t, e.ProcessComponents())
	})

	t.Run("add to inactive entity passes through active once", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("hidden")
		e.SetActive(false)

		e.AddComponent(newPosition(log, "pos"))
		state, _ := ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateUnloadedInactive, state)

		e.ProcessComponents()

		state, _ = ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateInactive, state)
		assert.Equal(t, []string{"pos.load", "pos.activate", "pos.deactivate"}, log.Calls())
		assert.True(t, e.ComponentMask().IsEmpty())
	})

	t.Run("async load becomes active on the third pass", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("model")
		e.AddComponent(&Mesh{recorder: recorder{log: log, label: "mesh"}, ReadyOn: 3})

		for pass := 1; pass <= 2; pass++ {
			assert.False(t, e.ProcessComponents(), "pass %d", pass)
			state, _ := ecs.StateOf[*Mesh](e)
			assert.Equal(t, ecs.StateUnloaded, state, "pass %d", pass)
			assert.True(t, e.ComponentMask().IsEmpty(), "pass %d", pass)
		}

		assert.True(t, e.ProcessComponents())
		state, _ := ecs.StateOf[*Mesh](e)
		assert.Equal(t, ecs.StateActive, state)
		assert.Equal(t, []string{"mesh.load", "mesh.load", "mesh.load", "mesh.activate"}, log.Calls())

		infos := e.Components()
		require.Len(t, infos, 1)
		assert.Equal(t, "Mesh", infos[0].Name)
		assert.Equal(t, 2, infos[0].Attempts)
	})

	t.Run("async retry does not block other components", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("model")
		e.AddComponent(&Mesh{recorder: recorder{log: log, label: "mesh"}, ReadyOn: 2})
		e.AddComponent(newPosition(log, "pos"))

		assert.False(t, e.ProcessComponents())
		assert.Equal(t, []string{"mesh.load", "pos.load", "pos.activate"}, log.Calls())
		assert.True(t, e.HasComponents(scene.Module().GetComponentMask(typeOf[*Position](scene))))
	})

	t.Run("synchronous failure is terminal", func(t *testing.T) {
		scene, buf := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("broken")
		e.AddComponent(&Broken{recorder: recorder{log: log, label: "broken"}})
		e.AddComponent(newPosition(log, "pos"))

		assert.True(t, e.ProcessComponents())

		state, _ := ecs.StateOf[*Broken](e)
		assert.Equal(t, ecs.StateLoadFailed, state)
		assert.Contains(t, buf.String(), "component failed to load")
		assert.Equal(t, ecs.MaskOf(typeOf[*Position](scene)), e.ComponentMask())

		buf.Reset()
		ecs.ReloadComponent[*Broken](e)
		assert.Contains(t, buf.String(), "component failed to load")
		assert.Equal(t, 0, e.PendingCount())

		assert.True(t, e.ProcessComponents())
		assert.Equal(t, []string{"broken.load", "pos.load", "pos.activate"}, log.Calls())

		// destroying a failed component runs no hooks
		ecs.DestroyComponent[*Broken](e)
		_, ok := ecs.GetComponent[*Broken](e)
		assert.False(t, ok)
		assert.Equal(t, []string{"broken.load", "pos.load", "pos.activate"}, log.Calls())
	})

	t.Run("duplicate type is logged and ignored", func(t *testing.T) {
		scene, buf := newTestScene()
		e := scene.CreateEntity("dup")
		first := newPosition(nil, "first")
		e.AddComponent(first)
		e.AddComponent(newPosition(nil, "second"))

		assert.Contains(t, buf.String(), "component type already attached to entity")
		got, ok := ecs.GetComponent[*Position](e)
		require.True(t, ok)
		assert.Same(t, first, got)
		assert.Equal(t, 1, e.PendingCount())
	})

	t.Run("unregistered type is logged", func(t *testing.T) {
		module, buf := newTestModule()
		scene := module.CreateScene("test")
		e := scene.CreateEntity("x")

		e.AddComponent(&struct{ Bare }{})
		assert.Contains(t, buf.String(), "component type not registered")
		assert.Empty(t, e.Components())
	})

	t.Run("BaseComponent defaults load synchronously", func(t *testing.T) {
		scene, _ := newTestScene()
		e := scene.CreateEntity("bare")
		bare := &Bare{}
		e.AddComponent(bare)
		e.ProcessComponents()

		state, _ := ecs.StateOf[*Bare](e)
		assert.Equal(t, ecs.StateActive, state)
		assert.Same(t, e, bare.Entity())
	})
}

func TestDestroyComponent(t *testing.T) {
	t.Run("active component deactivates then unloads", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		pos := newPosition(log, "pos")
		e.AddComponent(pos)
		e.ProcessComponents()
		log.Reset()

		ecs.DestroyComponent[*Position](e)

		assert.Equal(t, []string{"pos.deactivate", "pos.unload"}, log.Calls())
		_, ok := ecs.GetComponent[*Position](e)
		assert.False(t, ok)
		assert.True(t, e.ComponentMask().IsEmpty())
		assert.Nil(t, pos.Entity())
	})

	t.Run("inactive component only unloads", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(newPosition(log, "pos"))
		e.ProcessComponents()
		e.SetActive(false)
		log.Reset()

		ecs.DestroyComponent[*Position](e)
		assert.Equal(t, []string{"pos.unload"}, log.Calls())
	})

	t.Run("pending component is dropped from the queue", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&Mesh{recorder: recorder{log: log, label: "mesh"}, ReadyOn: 10})
		e.ProcessComponents()
		log.Reset()

		ecs.DestroyComponent[*Mesh](e)
		assert.Equal(t, 0, e.PendingCount())
		assert.True(t, e.ProcessComponents())
		assert.Empty(t, log.Calls())
	})

	t.Run("missing type is logged", func(t *testing.T) {
		scene, buf := newTestScene()
		e := scene.CreateEntity("e")
		ecs.DestroyComponent[*Velocity](e)
		assert.Contains(t, buf.String(), "component type not attached to entity")
		assert.Contains(t, buf.String(), `"component":"Velocity"`)
	})
}

func TestReloadComponent(t *testing.T) {
	t.Run("active component goes through the full cycle", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(newPosition(log, "pos"))
		e.ProcessComponents()
		log.Reset()

		ecs.ReloadComponent[*Position](e)

		state, _ := ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateUnloaded, state)
		assert.True(t, e.ComponentMask().IsEmpty())
		assert.Equal(t, 1, e.PendingCount())

		e.ProcessComponents()
		state, _ = ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateActive, state)
		assert.Equal(t, []string{"pos.deactivate", "pos.unload", "pos.load", "pos.activate"}, log.Calls())
	})

	t.Run("inactive entity reloads into unloaded inactive", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(newPosition(log, "pos"))
		e.ProcessComponents()
		e.SetActive(false)
		log.Reset()

		ecs.ReloadComponent[*Position](e)
		state, _ := ecs.StateOf[*Position](e)
		assert.Equal(t, ecs.StateUnloadedInactive, state)
		assert.Equal(t, []string{"pos.unload"}, log.Calls())
	})

	t.Run("missing type is logged", func(t *testing.T) {
		scene, buf := newTestScene()
		e := scene.CreateEntity("e")
		ecs.ReloadComponent[*Position](e)
		assert.Contains(t, buf.String(), "component type not attached to entity")
	})
}

func TestComponentMaskMatchesActiveComponents(t *testing.T) {
	scene, _ := newTestScene()
	e := scene.CreateEntity("e")
	child := scene.CreateEntity("child")
	child.SetParent(e)

	steps := []func(){
		func() { e.AddComponent(newPosition(nil, "pos")) },
		func() { child.AddComponent(newVelocity(nil, "vel")) },
		func() { e.SetActive(false) },
		func() { e.AddComponent(newHealth(nil, "hp")) },
		func() { ecs.DestroyComponent[*Position](e) },
		func() { e.SetActive(true) },
		func() { ecs.ReloadComponent[*Health](e) },
		func() { child.SetActive(false) },
		func() { e.AddComponent(newPosition(nil, "pos2")) },
	}

	for i, step := range steps {
		step()
		for _, entity := range []*ecs.Entity{e, child} {
			drain(entity, 5)
			var want ecs.ComponentMask
			for _, info := range entity.Components() {
				if info.State == ecs.StateActive {
					want = want.Set(info.Type)
				}
			}
			assert.Equal(t, want, entity.ComponentMask(), "step %d entity %s", i, entity.Name())
		}
	}

	assert.Equal(t, ecs.MaskOf(typeOf[*Position](scene), typeOf[*Health](scene)), e.ComponentMask())
	assert.True(t, child.ComponentMask().IsEmpty())
}

func TestGetComponent(t *testing.T) {
	scene, _ := newTestScene()
	e := scene.CreateEntity("e")
	pos := newPosition(nil, "pos")
	pos.X = 3
	ecs.AddComponent(e, pos)

	got, ok := ecs.GetComponent[*Position](e)
	require.True(t, ok)
	assert.Equal(t, float32(3), got.X)

	_, ok = ecs.GetComponent[*Velocity](e)
	assert.False(t, ok)

	component, ok := e.Component(typeOf[*Position](scene))
	require.True(t, ok)
	assert.Same(t, pos, component)
}
