package ecs_test

import (
	"testing"

	"github.com/plus3/scenery/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntity(t *testing.T) {
	scene, buf := newTestScene()

	a := scene.CreateEntity("a")
	assert.Equal(t, ecs.EntityId(1), a.Id())

	b := scene.CreateEntity("b", 10)
	require.NotNil(t, b)
	assert.Equal(t, ecs.EntityId(10), b.Id())

	c := scene.CreateEntity("c")
	assert.Equal(t, ecs.EntityId(11), c.Id())

	assert.Nil(t, scene.CreateEntity("d", 10))
	assert.Contains(t, buf.String(), "entity id already in use")

	e := scene.CreateEntity("e", 5)
	assert.Equal(t, ecs.EntityId(5), e.Id())
	assert.Equal(t, ecs.EntityId(12), scene.CreateEntity("f").Id())

	assert.Equal(t, 5, scene.EntityCount())
	assert.Same(t, b, scene.GetEntity(10))
	assert.Nil(t, scene.GetEntity(99))
	assert.True(t, a.IsActive())
	assert.Empty(t, a.Components())

	var ids []ecs.EntityId
	for entity := range scene.Entities() {
		ids = append(ids, entity.Id())
	}
	assert.Equal(t, []ecs.EntityId{1, 5, 10, 11, 12}, ids)
}

func TestDestroyEntity(t *testing.T) {
	t.Run("round trip leaves nothing behind", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}

		e := scene.CreateEntity("saved", 42)
		ecs.AddComponent(e, newPosition(log, "pos"))
		scene.Update(0)
		require.True(t, e.HasComponents(scene.Module().GetComponentMask(typeOf[*Position](scene))))

		scene.DestroyEntity(e)
		assert.Nil(t, scene.GetEntity(42))
		assert.True(t, e.IsDestroyed())
		calls := log.Calls()
		assert.Equal(t, []string{"pos.load", "pos.activate", "pos.deactivate", "pos.unload"}, calls)

		scene.Update(0)
		scene.Update(0)
		assert.Equal(t, calls, log.Calls())
		assert.NotContains(t, scene.Root().Children(), e)
	})

	t.Run("children are destroyed first", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		parent := scene.CreateEntity("parent")
		active := scene.CreateEntity("active")
		inactive := scene.CreateEntity("inactive")
		grandchild := scene.CreateEntity("grandchild")
		active.SetParent(parent)
		inactive.SetParent(parent)
		grandchild.SetParent(active)
		inactive.SetActive(false)
		for _, e := range []*ecs.Entity{parent, active, inactive, grandchild} {
			e.AddComponent(newPosition(log, e.Name()))
			e.ProcessComponents()
		}
		log.Reset()
		keep := scene.CreateEntity("keep")

		scene.DestroyEntity(parent)

		assert.Equal(t, []string{
			"grandchild.deactivate", "grandchild.unload",
			"active.deactivate", "active.unload",
			"inactive.unload",
			"parent.deactivate", "parent.unload",
		}, log.Calls())
		assert.Equal(t, 1, scene.EntityCount())
		assert.Same(t, keep, scene.GetEntity(keep.Id()))
		assertPartition(t, scene)
	})

	t.Run("pending async load is never retried", func(t *testing.T) {
		scene, _ := newTestScene()
		log := &hookLog{}
		e := scene.CreateEntity("loading")
		e.AddComponent(&Mesh{recorder: recorder{log: log, label: "mesh"}, ReadyOn: 100})
		scene.Update(0)
		assert.Equal(t, 1, scene.PendingEntities())

		scene.DestroyEntity(e)
		scene.Update(0)
		assert.Equal(t, []string{"mesh.load"}, log.Calls())
		assert.Equal(t, 0, scene.PendingEntities())
	})

	t.Run("destroyed entity rejects mutation", func(t *testing.T) {
		scene, buf := newTestScene()
		e := scene.CreateEntity("gone")
		scene.DestroyEntity(e)

		e.AddComponent(newPosition(nil, "pos"))
		assert.Contains(t, buf.String(), "entity has been destroyed")
		assert.Empty(t, e.Components())

		// a second destroy is a no-op
		scene.DestroyEntity(e)
		scene.DestroyEntityById(e.Id())
		assert.Contains(t, buf.String(), "entity not found")
	})

	t.Run("root cannot be destroyed", func(t *testing.T) {
		scene, buf := newTestScene()
		scene.CreateEntity("e")
		scene.DestroyEntity(scene.Root())
		assert.Contains(t, buf.String(), "operation not permitted on scene root")
		assert.Equal(t, 1, scene.EntityCount())
	})
}

func TestCloneEntity(t *testing.T) {
	scene, _ := newTestScene()
	log := &hookLog{}
	parent := scene.CreateEntity("parent")
	src := scene.CreateEntity("src")
	src.SetParent(parent)
	pos := newPosition(log, "pos")
	pos.X, pos.Y = 1, 2
	src.AddComponent(pos)
	src.AddComponent(newVelocity(log, "vel"))
	src.SetActive(false)

	clone := scene.CloneEntity(src)
	require.NotNil(t, clone)

	assert.NotEqual(t, src.Id(), clone.Id())
	assert.Equal(t, "src", clone.Name())
	assert.Same(t, parent, clone.Parent())
	assert.False(t, clone.IsActive())
	assert.Contains(t, parent.InactiveChildren(), clone)

	copied, ok := ecs.GetComponent[*Position](clone)
	require.True(t, ok)
	assert.NotSame(t, pos, copied)
	assert.Equal(t, float32(1), copied.X)
	assert.Equal(t, float32(2), copied.Y)
	state, _ := ecs.StateOf[*Position](clone)
	assert.Equal(t, ecs.StateUnloadedInactive, state)

	_, ok = ecs.GetComponent[*Velocity](clone)
	assert.False(t, ok)
}

func TestEntityRef(t *testing.T) {
	scene, _ := newTestScene()
	e := scene.CreateEntity("e")

	ref := scene.CreateEntityRef(e.Id())
	require.NotNil(t, ref)
	assert.Same(t, ref, scene.CreateEntityRef(e.Id()))

	resolved, ok := scene.ResolveEntityRef(ref)
	require.True(t, ok)
	assert.Same(t, e, resolved)

	scene.DestroyEntity(e)
	_, ok = scene.ResolveEntityRef(ref)
	assert.False(t, ok)
	assert.Equal(t, ecs.InvalidEntityId, ref.Id)

	assert.Nil(t, scene.CreateEntityRef(e.Id()))

	other := scene.CreateEntity("other")
	ref = scene.CreateEntityRef(other.Id())
	assert.True(t, scene.InvalidateEntityRef(ref))
	assert.False(t, scene.InvalidateEntityRef(ref))
	_, ok = scene.ResolveEntityRef(ref)
	assert.False(t, ok)
	assert.NotSame(t, ref, scene.CreateEntityRef(other.Id()))
}

func TestEntityName(t *testing.T) {
	scene, _ := newTestScene()
	var names []string
	ecs.Subscribe(scene.Module().Events(), func(ev ecs.EntityNameChanged) {
		names = append(names, ev.Name)
	})

	e := scene.CreateEntity("before")
	e.SetName("after")
	e.SetName("after")

	assert.Equal(t, "after", e.Name())
	assert.Equal(t, []string{"after"}, names)
	assert.Equal(t, `Entity(1 "after")`, e.String())
}
