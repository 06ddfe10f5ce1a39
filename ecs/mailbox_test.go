package ecs_test

import (
	"testing"

	"github.com/plus3/scenery/ecs"
	"github.com/stretchr/testify/assert"
)

// selfDestruct removes itself as soon as it activates.
type selfDestruct struct {
	recorder
}

func (s *selfDestruct) OnActivate(e *ecs.Entity) {
	s.recorder.OnActivate(e)
	ecs.DestroyComponent[*selfDestruct](e)
}

// hider deactivates its entity while loading.
type hider struct {
	recorder
}

func (h *hider) OnLoad(e *ecs.Entity) (bool, bool) {
	h.log.add(h.label + ".load")
	e.SetActive(false)
	return true, false
}

// reloader asks for a reload the first time it loads.
type reloader struct {
	recorder
	loads int
}

func (r *reloader) OnLoad(e *ecs.Entity) (bool, bool) {
	r.loads++
	r.log.add(r.label + ".load")
	if r.loads == 1 {
		ecs.ReloadComponent[*reloader](e)
	}
	return true, false
}

// destroyer destroys its whole entity from inside a load.
type destroyer struct {
	recorder
}

func (d *destroyer) OnLoad(e *ecs.Entity) (bool, bool) {
	d.log.add(d.label + ".load")
	e.Scene().DestroyEntity(e)
	return true, false
}

// flicker deactivates and reactivates its entity while loading.
type flicker struct {
	recorder
}

func (f *flicker) OnLoad(e *ecs.Entity) (bool, bool) {
	f.log.add(f.label + ".load")
	e.SetActive(false)
	e.SetActive(true)
	return true, false
}

// drainer processes its entity from inside a deactivation.
type drainer struct {
	recorder
	drained []bool
}

func (d *drainer) OnDeactivate(e *ecs.Entity) {
	d.recorder.OnDeactivate(e)
	d.drained = append(d.drained, e.ProcessComponents())
}

func newMailboxScene() *ecs.EntityScene {
	scene, _ := newTestScene()
	registry := scene.Module().Registry()
	ecs.RegisterComponent[*selfDestruct](registry, "selfDestruct")
	ecs.RegisterComponent[*hider](registry, "hider")
	ecs.RegisterComponent[*reloader](registry, "reloader")
	ecs.RegisterComponent[*destroyer](registry, "destroyer")
	ecs.RegisterComponent[*flicker](registry, "flicker")
	ecs.RegisterComponent[*drainer](registry, "drainer")
	return scene
}

func TestMailbox(t *testing.T) {
	t.Run("destroy from a hook runs after the pass", func(t *testing.T) {
		scene := newMailboxScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&selfDestruct{recorder{log: log, label: "sd"}})
		e.AddComponent(newPosition(log, "pos"))

		assert.True(t, e.ProcessComponents())

		assert.Equal(t, []string{"sd.load", "sd.activate", "pos.load", "pos.activate", "sd.deactivate", "sd.unload"}, log.Calls())
		_, ok := ecs.GetComponent[*selfDestruct](e)
		assert.False(t, ok)
		assert.Equal(t, ecs.MaskOf(typeOf[*Position](scene)), e.ComponentMask())
	})

	t.Run("set active from a hook runs after the pass", func(t *testing.T) {
		scene := newMailboxScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&hider{recorder{log: log, label: "hider"}})

		e.ProcessComponents()

		assert.False(t, e.IsActive())
		assert.Contains(t, scene.Root().InactiveChildren(), e)
		assert.Equal(t, []string{"hider.load", "hider.activate", "hider.deactivate"}, log.Calls())
		state, _ := ecs.StateOf[*hider](e)
		assert.Equal(t, ecs.StateInactive, state)
	})

	t.Run("reload from a hook queues another pass", func(t *testing.T) {
		scene := newMailboxScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&reloader{recorder: recorder{log: log, label: "r"}})

		assert.False(t, e.ProcessComponents())
		assert.True(t, e.ProcessComponents())
		assert.Equal(t, []string{"r.load", "r.activate", "r.deactivate", "r.unload", "r.load", "r.activate"}, log.Calls())
	})

	t.Run("destroying the entity mid pass is deferred to the tick", func(t *testing.T) {
		scene := newMailboxScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&destroyer{recorder{log: log, label: "d"}})

		scene.Update(0)

		assert.True(t, e.IsDestroyed())
		assert.Nil(t, scene.GetEntity(e.Id()))
		assert.Equal(t, []string{"d.load", "d.activate", "d.deactivate", "d.unload"}, log.Calls())
	})

	t.Run("set active twice from a hook keeps the last value", func(t *testing.T) {
		scene := newMailboxScene()
		log := &hookLog{}
		e := scene.CreateEntity("e")
		e.AddComponent(&flicker{recorder{log: log, label: "f"}})

		assert.True(t, e.ProcessComponents())

		assert.True(t, e.IsActive())
		assert.Contains(t, scene.Root().Children(), e)
		state, _ := ecs.StateOf[*flicker](e)
		assert.Equal(t, ecs.StateActive, state)
		assert.Equal(t, []string{"f.load", "f.activate", "f.deactivate", "f.activate"}, log.Calls())
	})

	t.Run("processing an empty queue during a cascade reports done", func(t *testing.T) {
		scene := newMailboxScene()
		e := scene.CreateEntity("e")
		d := &drainer{recorder: recorder{label: "d"}}
		e.AddComponent(d)
		assert.True(t, e.ProcessComponents())

		e.SetActive(false)

		assert.Equal(t, []bool{true}, d.drained)
		state, _ := ecs.StateOf[*drainer](e)
		assert.Equal(t, ecs.StateInactive, state)
	})
}
