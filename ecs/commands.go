package ecs

import "sync"

// Commands buffers structural scene operations until the end of an update.
// Systems queue through it so the hierarchy does not change under them.
// It is safe for concurrent use.
type Commands struct {
	mu      sync.Mutex
	creates []createCommand
	deletes []EntityId
	adds    []addComponentCommand
	removes []removeComponentCommand
	parents []setParentCommand
	actives []setActiveCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type createCommand struct {
	name string
	init func(*Entity)
}

type addComponentCommand struct {
	entity    EntityId
	component Component
}

type removeComponentCommand struct {
	entity EntityId
	typ    ComponentTypeId
}

type setParentCommand struct {
	entity EntityId
	parent EntityId
}

type setActiveCommand struct {
	entity EntityId
	active bool
}

// Defer queues fn to run after every other queued operation.
func (c *Commands) Defer(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defers = append(c.defers, fn)
}

// CreateEntity queues the creation of an entity under the scene root. init, if
// non-nil, runs on the new entity.
func (c *Commands) CreateEntity(name string, init func(*Entity)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates = append(c.creates, createCommand{name: name, init: init})
}

// DestroyEntity queues the destruction of an entity and its subtree.
func (c *Commands) DestroyEntity(entity EntityId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, entity)
}

// AddComponent queues a component attachment.
func (c *Commands) AddComponent(entity EntityId, component Component) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adds = append(c.adds, addComponentCommand{entity: entity, component: component})
}

// DestroyComponent queues a component removal.
func (c *Commands) DestroyComponent(entity EntityId, typ ComponentTypeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removes = append(c.removes, removeComponentCommand{entity: entity, typ: typ})
}

// SetParent queues a reparent. A parent of InvalidEntityId moves the entity
// under the scene root.
func (c *Commands) SetParent(entity, parent EntityId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parents = append(c.parents, setParentCommand{entity: entity, parent: parent})
}

// SetActive queues an activation change.
func (c *Commands) SetActive(entity EntityId, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actives = append(c.actives, setActiveCommand{entity: entity, active: active})
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.creates) + len(c.deletes) + len(c.adds) + len(c.removes) +
		len(c.parents) + len(c.actives) + len(c.defers)
}

// Flush applies the queued operations to scene and resets the buffer.
// Deletions go first; operations on entities that no longer exist are dropped.
// Operations queued while flushing wait for the next Flush.
func (c *Commands) Flush(scene *EntityScene) {
	c.mu.Lock()
	creates, deletes, adds, removes := c.creates, c.deletes, c.adds, c.removes
	parents, actives, defers := c.parents, c.actives, c.defers
	c.creates, c.deletes, c.adds, c.removes = nil, nil, nil, nil
	c.parents, c.actives, c.defers = nil, nil, nil
	c.mu.Unlock()

	for _, id := range deletes {
		scene.DestroyEntityById(id)
	}

	for _, cmd := range removes {
		if e := scene.GetEntity(cmd.entity); e != nil {
			e.DestroyComponent(cmd.typ)
		}
	}

	for _, cmd := range adds {
		if e := scene.GetEntity(cmd.entity); e != nil {
			e.AddComponent(cmd.component)
		}
	}

	for _, cmd := range parents {
		e := scene.GetEntity(cmd.entity)
		if e == nil {
			continue
		}
		if cmd.parent == InvalidEntityId {
			e.RemoveParent()
			continue
		}
		e.SetParentById(cmd.parent)
	}

	for _, cmd := range actives {
		if e := scene.GetEntity(cmd.entity); e != nil {
			e.SetActive(cmd.active)
		}
	}

	for _, cmd := range creates {
		e := scene.CreateEntity(cmd.name)
		if e != nil && cmd.init != nil {
			cmd.init(e)
		}
	}

	for _, fn := range defers {
		fn()
	}
}

type entityCommandKind uint8

const (
	cmdDestroyComponent entityCommandKind = iota
	cmdReloadComponent
	cmdSetActive
	cmdSyncEnabled
)

// entityCommand is a mutation requested while the entity was processing its
// component queue, applied once the pass ends.
type entityCommand struct {
	kind   entityCommandKind
	typ    ComponentTypeId
	active bool
}

func (c entityCommand) apply(e *Entity) {
	if e.IsDestroyed() {
		return
	}
	switch c.kind {
	case cmdDestroyComponent:
		e.DestroyComponent(c.typ)
	case cmdReloadComponent:
		e.ReloadComponent(c.typ)
	case cmdSetActive:
		e.SetActive(c.active)
	case cmdSyncEnabled:
		e.syncEnabled()
	}
}
