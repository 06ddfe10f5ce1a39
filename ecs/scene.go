package ecs

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
)

// EntityScene owns a tree of entities hanging off a synthetic root. Destroying
// the scene destroys every entity in it.
type EntityScene struct {
	id     uuid.UUID
	module *SystemModule
	root   *Entity

	mu       sync.RWMutex
	name     string
	entities *intmap.Map[EntityId, *Entity]
	refs     *intmap.Map[EntityId, weak.Pointer[EntityRef]]
	nextId   EntityId

	queueMu sync.Mutex
	queue   []*Entity

	commands  *Commands
	scheduler *Scheduler
	version   atomic.Uint64
}

func newEntityScene(module *SystemModule, id uuid.UUID, name string) *EntityScene {
	s := &EntityScene{
		id:       id,
		module:   module,
		name:     name,
		entities: intmap.New[EntityId, *Entity](64),
		refs:     intmap.New[EntityId, weak.Pointer[EntityRef]](64),
		nextId:   1,
		commands: newCommands(),
	}
	s.root = newEntity(s, InvalidEntityId, "root")
	s.scheduler = newScheduler(s)
	return s
}

// Id returns the scene id.
func (s *EntityScene) Id() uuid.UUID {
	return s.id
}

// Name returns the scene name.
func (s *EntityScene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// SetName renames the scene.
func (s *EntityScene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// Module returns the owning system module.
func (s *EntityScene) Module() *SystemModule {
	return s.module
}

// Root returns the synthetic root entity. It is meant for traversal; it holds
// no components and cannot be reparented, deactivated or destroyed.
func (s *EntityScene) Root() *Entity {
	return s.root
}

// Commands returns the scene's deferred mutation buffer, flushed at the end of
// every Update.
func (s *EntityScene) Commands() *Commands {
	return s.commands
}

// Scheduler returns the scene's system scheduler.
func (s *EntityScene) Scheduler() *Scheduler {
	return s.scheduler
}

// Version changes whenever an entity is created, destroyed, renamed, moved or
// toggled in the hierarchy, and whenever an entity's component mask changes.
func (s *EntityScene) Version() uint64 {
	return s.version.Load()
}

// CreateEntity creates an entity under the scene root. An id may be supplied,
// for instance when rebuilding a saved scene; otherwise one is allocated. A
// supplied id that is already in use is logged and nil is returned.
func (s *EntityScene) CreateEntity(name string, id ...EntityId) *Entity {
	s.mu.Lock()
	var eid EntityId
	if len(id) > 0 && id[0] != InvalidEntityId {
		eid = id[0]
		if s.entities.Has(eid) {
			s.mu.Unlock()
			s.logger().Error().
				Err(eris.Wrapf(ErrEntityExists, "entity %d", eid)).
				Str("entity", name).
				Msg("create entity")
			return nil
		}
		if eid >= s.nextId {
			s.nextId = eid + 1
		}
	} else {
		for s.entities.Has(s.nextId) {
			s.nextId++
		}
		eid = s.nextId
		s.nextId++
	}
	e := newEntity(s, eid, name)
	e.parent = s.root
	s.entities.Put(eid, e)
	s.mu.Unlock()

	s.root.attachChild(e, true)
	s.version.Add(1)
	Publish(s.module.events, EntityCreated{Entity: e})
	return e
}

// CloneEntity creates a sibling of src with the same name and active flag.
// Components implementing Cloner are cloned onto it; others are skipped.
// Children are not cloned.
func (s *EntityScene) CloneEntity(src *Entity) *Entity {
	var err error
	switch {
	case src == nil:
		err = ErrNilEntity
	case src.scene != s:
		err = eris.Wrapf(ErrCrossScene, "entity %d", src.id)
	case src.isRoot():
		err = eris.Wrap(ErrRootEntity, "clone entity")
	case src.IsDestroyed():
		err = eris.Wrapf(ErrDestroyed, "entity %d", src.id)
	}
	if err != nil {
		s.logger().Error().Err(err).Msg("clone entity")
		return nil
	}

	e := s.CreateEntity(src.Name())
	if parent := src.Parent(); parent != nil {
		e.SetParent(parent)
	}
	if !src.IsActive() {
		e.SetActive(false)
	}
	for _, info := range src.Components() {
		cloner, ok := info.Component.(Cloner)
		if !ok {
			e.logDebug().Str("component", info.Name).Msg("component not cloneable")
			continue
		}
		e.AddComponent(cloner.Clone())
	}
	return e
}

// GetEntity returns the entity with the given id, or nil.
func (s *EntityScene) GetEntity(id EntityId) *Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities.Get(id)
	if !ok {
		return nil
	}
	return e
}

// EntityCount returns the number of entities, not counting the root.
func (s *EntityScene) EntityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities.Len()
}

// Entities iterates over a snapshot of the scene's entities in id order.
func (s *EntityScene) Entities() iter.Seq[*Entity] {
	s.mu.RLock()
	list := make([]*Entity, 0, s.entities.Len())
	s.entities.ForEach(func(_ EntityId, e *Entity) bool {
		list = append(list, e)
		return true
	})
	s.mu.RUnlock()
	slices.SortFunc(list, func(a, b *Entity) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})

	return func(yield func(*Entity) bool) {
		for _, e := range list {
			if !yield(e) {
				return
			}
		}
	}
}

// DestroyEntityById destroys the entity with the given id.
func (s *EntityScene) DestroyEntityById(id EntityId) {
	e := s.GetEntity(id)
	if e == nil {
		s.logger().Error().
			Err(eris.Wrapf(ErrEntityNotFound, "entity %d", id)).
			Msg("destroy entity")
		return
	}
	s.DestroyEntity(e)
}

// DestroyEntity detaches e from its parent, destroys its children first, then
// its components, and removes it from the scene. If any entity of the subtree
// is in the middle of processing its components, destruction is deferred to the
// scene Commands.
func (s *EntityScene) DestroyEntity(e *Entity) {
	switch {
	case e == nil:
		s.logger().Error().Err(ErrNilEntity).Msg("destroy entity")
		return
	case e.scene != s:
		e.logError(eris.Wrap(ErrCrossScene, "destroy entity")).Msg("destroy entity")
		return
	case e.isRoot():
		e.logError(eris.Wrap(ErrRootEntity, "destroy entity")).Msg("destroy entity")
		return
	case e.IsDestroyed():
		return
	}

	tree := e.subtree()
	if slices.ContainsFunc(tree, (*Entity).isProcessing) {
		s.commands.DestroyEntity(e.id)
		return
	}

	Publish(s.module.events, EntityDestroying{Entity: e})
	e.detach()
	s.destroyTree(e)
	s.onHierarchyChanged()
}

func (s *EntityScene) destroyTree(e *Entity) {
	e.destroyed.Store(true)
	for _, child := range slices.Clone(e.children) {
		s.destroyTree(child)
	}
	for _, child := range slices.Clone(e.inactiveChildren) {
		s.destroyTree(child)
	}
	e.clearComponents()

	e.parent = nil
	e.children = nil
	e.inactiveChildren = nil

	s.mu.Lock()
	s.entities.Del(e.id)
	s.mu.Unlock()
	s.invalidateRef(e.id)
	s.version.Add(1)
}

// clear destroys every entity of the scene.
func (s *EntityScene) clear() {
	for _, list := range [][]*Entity{slices.Clone(s.root.children), slices.Clone(s.root.inactiveChildren)} {
		for _, e := range list {
			s.DestroyEntity(e)
		}
	}
	s.commands.Flush(s)
}

// Update runs one scheduler tick: pending components, systems, then Commands.
func (s *EntityScene) Update(dt float64) {
	s.scheduler.Once(dt)
}

// AddSystem registers a system with the scene scheduler.
func (s *EntityScene) AddSystem(system System) error {
	return s.scheduler.Register(system)
}

// RemoveSystem unregisters a system. It reports whether the system was registered.
func (s *EntityScene) RemoveSystem(system System) bool {
	return s.scheduler.Unregister(system)
}

func (s *EntityScene) enqueueProcess(e *Entity) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if e.queued {
		return
	}
	e.queued = true
	s.queue = append(s.queue, e)
}

func (s *EntityScene) takeProcessQueue() []*Entity {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	queue := s.queue
	s.queue = nil
	for _, e := range queue {
		e.queued = false
	}
	return queue
}

// PendingEntities returns the number of entities waiting for their components
// to be processed.
func (s *EntityScene) PendingEntities() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.queue)
}

func (s *EntityScene) onComponentToProcess(e *Entity, typ ComponentTypeId) {
	s.enqueueProcess(e)
	Publish(s.module.events, ComponentPending{Entity: e, Type: typ})
}

func (s *EntityScene) onComponentAdded(e *Entity, typ ComponentTypeId) {
	Publish(s.module.events, ComponentAdded{Entity: e, Type: typ})
}

func (s *EntityScene) onComponentToRemove(e *Entity, typ ComponentTypeId) {
	Publish(s.module.events, ComponentRemoving{Entity: e, Type: typ})
}

func (s *EntityScene) onComponentRemoved(e *Entity, typ ComponentTypeId, mask ComponentMask) {
	s.version.Add(1)
	Publish(s.module.events, ComponentRemoved{Entity: e, Type: typ})
	Publish(s.module.events, EntityChanged{Entity: e, Mask: mask})
}

func (s *EntityScene) onEntityChanged(e *Entity, mask ComponentMask) {
	s.version.Add(1)
	Publish(s.module.events, EntityChanged{Entity: e, Mask: mask})
}

func (s *EntityScene) onHierarchyChanged() {
	s.version.Add(1)
	Publish(s.module.events, HierarchyChanged{Scene: s})
}

func (s *EntityScene) onEntityNameChanged(e *Entity, name string) {
	s.version.Add(1)
	Publish(s.module.events, EntityNameChanged{Entity: e, Name: name})
}
