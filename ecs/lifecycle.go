package ecs

import (
	"reflect"
	"slices"

	"github.com/rotisserie/eris"
)

// AddComponent attaches component to the entity and queues it for loading. The
// component starts Unloaded when the entity is active in the hierarchy and
// UnloadedInactive otherwise. Adding a second component of the same type is
// logged and ignored.
func (e *Entity) AddComponent(component Component) {
	if err := e.addComponent(component); err != nil {
		e.logError(err).Msg("add component")
	}
}

func (e *Entity) addComponent(component Component) error {
	if component == nil {
		return eris.Wrap(ErrComponentNotRegistered, "nil component")
	}
	if e.isRoot() {
		return eris.Wrap(ErrRootEntity, "add component")
	}
	if e.IsDestroyed() {
		return eris.Wrap(ErrDestroyed, "add component")
	}
	typ, ok := e.registry().TypeOf(component)
	if !ok {
		return eris.Wrapf(ErrComponentNotRegistered, "%T", component)
	}

	e.mu.Lock()
	// clearComponents snapshots under the lock after the flag is set
	if e.destroyed.Load() {
		e.mu.Unlock()
		return eris.Wrap(ErrDestroyed, "add component")
	}
	if e.components.Has(typ) {
		e.mu.Unlock()
		return eris.Wrapf(ErrDuplicateComponent, "%s", e.registry().Name(typ))
	}
	entry := &componentEntry{
		typ:       typ,
		component: component,
		state:     e.pendingStateLocked(),
	}
	if o, ok := component.(owned); ok {
		o.setOwner(e)
	}
	e.components.Put(typ, entry)
	e.pending = append(e.pending, entry)
	e.mu.Unlock()

	e.scene.onComponentToProcess(e, typ)
	return nil
}

// ProcessComponents runs one pass over the components queued for loading and
// reports whether the queue is empty afterwards. Entries are resolved in FIFO
// order; async loads that are not ready yet go to the back of the queue, behind
// anything queued during the pass. Hooks run without the entity lock held;
// DestroyComponent, ReloadComponent and SetActive calls made while the pass runs
// are applied in order once it finishes. While another pass runs it returns
// false; while an activation cascade runs the entity's hooks it reports only
// whether the queue is empty.
func (e *Entity) ProcessComponents() bool {
	e.mu.Lock()
	if e.processing {
		empty := e.cascading && len(e.pending) == 0
		e.mu.Unlock()
		return empty
	}
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return true
	}
	batch := e.pending
	e.pending = nil
	e.processing = true
	e.mu.Unlock()

	var (
		retry   []*componentEntry
		added   []ComponentTypeId
		changed bool
	)

	for _, entry := range batch {
		if !e.isQueued(entry) {
			continue
		}

		loaded, async := entry.component.OnLoad(e)
		if !loaded {
			if async {
				e.mu.Lock()
				entry.attempts++
				attempts := entry.attempts
				e.mu.Unlock()
				retry = append(retry, entry)
				e.logDebug().
					Str("component", e.registry().Name(entry.typ)).
					Int("attempts", attempts).
					Msg("component load pending")
				continue
			}

			e.mu.Lock()
			entry.state = StateLoadFailed
			e.mu.Unlock()
			changed = true
			e.logError(eris.Wrapf(ErrLoadFailed, "%s", e.registry().Name(entry.typ))).
				Str("component", e.registry().Name(entry.typ)).
				Msg("process components")
			continue
		}

		e.mu.Lock()
		inactive := entry.state == StateUnloadedInactive
		e.mu.Unlock()

		// a component loaded while inactive passes through Active once so load
		// completion side effects run before it settles
		entry.component.OnActivate(e)
		state := StateActive
		if inactive {
			entry.component.OnDeactivate(e)
			state = StateInactive
		}

		e.mu.Lock()
		entry.state = state
		e.mu.Unlock()
		changed = true
		added = append(added, entry.typ)
	}

	e.mu.Lock()
	e.pending = append(e.pending, retry...)
	if changed {
		e.recomputeMaskLocked()
	}
	mask := e.mask
	mailbox := e.mailbox
	e.mailbox = nil
	e.processing = false
	e.mu.Unlock()

	if changed {
		for _, typ := range added {
			e.scene.onComponentAdded(e, typ)
		}
		e.scene.onEntityChanged(e, mask)
	}

	for _, cmd := range mailbox {
		cmd.apply(e)
	}

	return e.PendingCount() == 0
}

// isQueued reports whether entry is still attached and waiting to be loaded.
func (e *Entity) isQueued(entry *componentEntry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	current, ok := e.components.Get(entry.typ)
	return ok && current == entry && entry.state.Pending()
}

// DestroyComponent detaches the component of type typ, deactivating and
// unloading it first as its state requires.
func (e *Entity) DestroyComponent(typ ComponentTypeId) {
	if err := e.destroyComponent(typ); err != nil {
		e.logError(err).Str("component", e.registry().Name(typ)).Msg("destroy component")
	}
}

func (e *Entity) destroyComponent(typ ComponentTypeId) error {
	e.mu.Lock()
	if e.processing {
		e.mailbox = append(e.mailbox, entityCommand{kind: cmdDestroyComponent, typ: typ})
		e.mu.Unlock()
		return nil
	}
	_, ok := e.components.Get(typ)
	e.mu.Unlock()
	if !ok {
		return eris.Wrapf(ErrComponentNotFound, "destroy %s", e.registry().Name(typ))
	}

	e.scene.onComponentToRemove(e, typ)

	// a pass may have started, or the entry gone, while subscribers ran
	e.mu.Lock()
	if e.processing {
		e.mailbox = append(e.mailbox, entityCommand{kind: cmdDestroyComponent, typ: typ})
		e.mu.Unlock()
		return nil
	}
	entry, ok := e.components.Get(typ)
	if !ok {
		e.mu.Unlock()
		return eris.Wrapf(ErrComponentNotFound, "destroy %s", e.registry().Name(typ))
	}
	state := entry.state
	e.components.Del(typ)
	e.pending = slices.DeleteFunc(e.pending, func(p *componentEntry) bool { return p == entry })
	e.recomputeMaskLocked()
	e.mu.Unlock()

	if state == StateActive {
		entry.component.OnDeactivate(e)
		state = StateInactive
	}
	if state == StateInactive {
		entry.component.OnUnload(e)
		state = StateUnloaded
	}

	e.mu.Lock()
	entry.state = state
	mask := e.mask
	e.mu.Unlock()

	if o, ok := entry.component.(owned); ok {
		o.setOwner(nil)
	}
	e.scene.onComponentRemoved(e, typ, mask)
	return nil
}

// ReloadComponent unloads the component of type typ and queues it for loading
// again. Components in StateLoadFailed cannot be reloaded; destroy and add them.
func (e *Entity) ReloadComponent(typ ComponentTypeId) {
	if err := e.reloadComponent(typ); err != nil {
		e.logError(err).Str("component", e.registry().Name(typ)).Msg("reload component")
	}
}

func (e *Entity) reloadComponent(typ ComponentTypeId) error {
	e.mu.Lock()
	if e.processing {
		e.mailbox = append(e.mailbox, entityCommand{kind: cmdReloadComponent, typ: typ})
		e.mu.Unlock()
		return nil
	}
	entry, ok := e.components.Get(typ)
	if !ok {
		e.mu.Unlock()
		return eris.Wrapf(ErrComponentNotFound, "reload %s", e.registry().Name(typ))
	}
	state := entry.state
	switch {
	case state == StateLoadFailed:
		e.mu.Unlock()
		return eris.Wrapf(ErrLoadFailed, "reload %s", e.registry().Name(typ))
	case state.Pending():
		// not loaded yet, still queued
		entry.state = e.pendingStateLocked()
		e.mu.Unlock()
		return nil
	}
	entry.state = e.pendingStateLocked()
	entry.attempts = 0
	e.recomputeMaskLocked()
	mask := e.mask
	e.mu.Unlock()

	if state == StateActive {
		entry.component.OnDeactivate(e)
		e.scene.onEntityChanged(e, mask)
	}
	entry.component.OnUnload(e)

	e.mu.Lock()
	current, ok := e.components.Get(typ)
	if !ok || current != entry {
		e.mu.Unlock()
		return nil
	}
	// SetActive may have run while the hooks did
	entry.state = e.pendingStateLocked()
	e.pending = append(e.pending, entry)
	e.mu.Unlock()

	e.scene.onComponentToProcess(e, typ)
	return nil
}

// clearComponents destroys every attached component, lowest type id first.
func (e *Entity) clearComponents() {
	for _, info := range e.Components() {
		e.DestroyComponent(info.Type)
	}
}

func (e *Entity) pendingStateLocked() ComponentState {
	if e.enabled {
		return StateUnloaded
	}
	return StateUnloadedInactive
}

func (e *Entity) recomputeMaskLocked() {
	registry := e.registry()
	var mask ComponentMask
	e.components.ForEach(func(typ ComponentTypeId, entry *componentEntry) bool {
		if entry.state == StateActive {
			mask |= registry.Mask(typ)
		}
		return true
	})
	e.mask = mask
}

// AddComponent attaches component to entity.
func AddComponent[T Component](entity *Entity, component T) {
	entity.AddComponent(component)
}

// DestroyComponent detaches the component of type T from entity.
func DestroyComponent[T Component](entity *Entity) {
	typ, ok := TypeFor[T](entity.registry())
	if !ok {
		entity.logError(eris.Wrapf(ErrComponentNotRegistered, "%s", reflect.TypeFor[T]())).Msg("destroy component")
		return
	}
	entity.DestroyComponent(typ)
}

// ReloadComponent unloads the component of type T and queues it again.
func ReloadComponent[T Component](entity *Entity) {
	typ, ok := TypeFor[T](entity.registry())
	if !ok {
		entity.logError(eris.Wrapf(ErrComponentNotRegistered, "%s", reflect.TypeFor[T]())).Msg("reload component")
		return
	}
	entity.ReloadComponent(typ)
}

// GetComponent returns the component of type T attached to entity, whatever its state.
func GetComponent[T Component](entity *Entity) (T, bool) {
	var zero T
	typ, ok := TypeFor[T](entity.registry())
	if !ok {
		return zero, false
	}
	component, ok := entity.Component(typ)
	if !ok {
		return zero, false
	}
	t, ok := component.(T)
	return t, ok
}

// StateOf returns the lifecycle state of the component of type T on entity.
func StateOf[T Component](entity *Entity) (ComponentState, bool) {
	typ, ok := TypeFor[T](entity.registry())
	if !ok {
		return 0, false
	}
	return entity.ComponentState(typ)
}
