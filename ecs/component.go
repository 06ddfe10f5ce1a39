package ecs

import "weak"

// Component is a typed capability attached to exactly one entity.
// The entity drives the hooks; none of them is called with an entity lock held,
// so hooks may call back into the entity.
type Component interface {
	// OnLoad prepares the component. When loaded is false and async is true the
	// load is retried on the next ProcessComponents pass.
	OnLoad(entity *Entity) (loaded bool, async bool)
	OnActivate(entity *Entity)
	OnDeactivate(entity *Entity)
	OnUnload(entity *Entity)
}

// Cloner is implemented by components that can be copied by EntityScene.CloneEntity.
type Cloner interface {
	Clone() Component
}

// owned is implemented by BaseComponent so the entity can maintain the back-reference.
type owned interface {
	setOwner(entity *Entity)
}

// BaseComponent provides no-op hooks and a weak back-reference to the owning entity.
// Embed it in component structs and override the hooks you need.
type BaseComponent struct {
	owner weak.Pointer[Entity]
}

func (b *BaseComponent) OnLoad(*Entity) (bool, bool) { return true, false }
func (b *BaseComponent) OnActivate(*Entity)          {}
func (b *BaseComponent) OnDeactivate(*Entity)        {}
func (b *BaseComponent) OnUnload(*Entity)            {}

// Entity returns the owning entity, or nil once the component has been destroyed.
func (b *BaseComponent) Entity() *Entity {
	return b.owner.Value()
}

func (b *BaseComponent) setOwner(entity *Entity) {
	if entity == nil {
		b.owner = weak.Pointer[Entity]{}
		return
	}
	b.owner = weak.Make(entity)
}

// ComponentInfo is a snapshot of one component attached to an entity.
type ComponentInfo struct {
	Type      ComponentTypeId
	Name      string
	State     ComponentState
	Component Component
	Attempts  int // OnLoad calls that asked to be retried
}

// componentEntry is the entity's bookkeeping for one attached component.
// All fields are guarded by the owning entity's mutex.
type componentEntry struct {
	typ       ComponentTypeId
	component Component
	state     ComponentState
	attempts  int
}
