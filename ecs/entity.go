package ecs

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kamstrup/intmap"
)

// EntityId is the scene-unique identity of an entity. Zero is never assigned.
type EntityId uint64

// InvalidEntityId is the id of the synthetic scene root.
const InvalidEntityId EntityId = 0

// Entity aggregates components and occupies one position in its scene's hierarchy.
//
// Component mutators (AddComponent, DestroyComponent, ReloadComponent) may be called
// from any goroutine. Hierarchy mutators (SetParent, RemoveParent, SetActive) and
// scene destruction belong to the simulation goroutine.
type Entity struct {
	id    EntityId
	scene *EntityScene

	// hierarchy, owned by the simulation goroutine
	parent           *Entity
	children         []*Entity
	inactiveChildren []*Entity
	dirtyHierarchy   atomic.Bool

	mu         sync.Mutex
	name       string
	active     bool
	enabled    bool // active and every ancestor active
	components *intmap.Map[ComponentTypeId, *componentEntry]
	pending    []*componentEntry
	mask       ComponentMask
	processing bool
	cascading  bool // processing is held by an activation cascade, not a pass
	mailbox    []entityCommand

	queued    bool // guarded by scene.queueMu
	destroyed atomic.Bool
}

func newEntity(scene *EntityScene, id EntityId, name string) *Entity {
	return &Entity{
		id:         id,
		scene:      scene,
		name:       name,
		active:     true,
		enabled:    true,
		components: intmap.New[ComponentTypeId, *componentEntry](4),
	}
}

// Id returns the entity id.
func (e *Entity) Id() EntityId {
	return e.id
}

// Scene returns the owning scene.
func (e *Entity) Scene() *EntityScene {
	return e.scene
}

// Name returns the display name.
func (e *Entity) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// SetName renames the entity and publishes EntityNameChanged.
func (e *Entity) SetName(name string) {
	e.mu.Lock()
	if e.name == name {
		e.mu.Unlock()
		return
	}
	e.name = name
	e.mu.Unlock()

	e.scene.onEntityNameChanged(e, name)
}

// IsActive returns the entity's own active flag.
func (e *Entity) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// IsActiveInHierarchy reports whether the entity and all of its ancestors are active.
func (e *Entity) IsActiveInHierarchy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// IsDestroyed reports whether the entity has been removed from its scene.
func (e *Entity) IsDestroyed() bool {
	return e.destroyed.Load()
}

// Parent returns the parent entity. Direct children of the scene root have no parent.
func (e *Entity) Parent() *Entity {
	if e.parent == nil || e.parent.isRoot() {
		return nil
	}
	return e.parent
}

// HasParent reports whether Parent would return a non-nil entity.
func (e *Entity) HasParent() bool {
	return e.Parent() != nil
}

// Children returns a copy of the active children, in insertion order.
func (e *Entity) Children() []*Entity {
	return append([]*Entity(nil), e.children...)
}

// InactiveChildren returns a copy of the inactive children, in insertion order.
func (e *Entity) InactiveChildren() []*Entity {
	return append([]*Entity(nil), e.inactiveChildren...)
}

// ComponentMask returns the mask of the components currently in StateActive.
func (e *Entity) ComponentMask() ComponentMask {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mask
}

// HasComponents reports whether every type of mask is attached and active.
func (e *Entity) HasComponents(mask ComponentMask) bool {
	return e.ComponentMask().Contains(mask)
}

// Component returns the component attached under typ, whatever its state.
func (e *Entity) Component(typ ComponentTypeId) (Component, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.components.Get(typ)
	if !ok {
		return nil, false
	}
	return entry.component, true
}

// ComponentState returns the lifecycle state of the component attached under typ.
func (e *Entity) ComponentState(typ ComponentTypeId) (ComponentState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.components.Get(typ)
	if !ok {
		return 0, false
	}
	return entry.state, true
}

// Components returns a snapshot of the attached components ordered by type id.
func (e *Entity) Components() []ComponentInfo {
	registry := e.registry()

	e.mu.Lock()
	infos := make([]ComponentInfo, 0, e.components.Len())
	e.components.ForEach(func(typ ComponentTypeId, entry *componentEntry) bool {
		infos = append(infos, ComponentInfo{
			Type:      typ,
			State:     entry.state,
			Component: entry.component,
			Attempts:  entry.attempts,
		})
		return true
	})
	e.mu.Unlock()

	for i := range infos {
		infos[i].Name = registry.Name(infos[i].Type)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Type < infos[j].Type })
	return infos
}

// PendingCount returns the number of components waiting for ProcessComponents.
func (e *Entity) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity(%d %q)", e.id, e.Name())
}

func (e *Entity) isRoot() bool {
	return e == e.scene.root
}

func (e *Entity) registry() *ComponentRegistry {
	return e.scene.module.registry
}

func (e *Entity) isProcessing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.processing
}
