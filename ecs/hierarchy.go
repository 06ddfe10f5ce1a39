package ecs

import (
	"slices"

	"github.com/rotisserie/eris"
)

// SetParent moves the entity under parent. Both must belong to the same scene.
// The entity lands in the parent's active or inactive children according to its
// own active flag, and its components follow the parent's activity.
// No cycle check is made; callers must not parent an entity under its own subtree.
func (e *Entity) SetParent(parent *Entity) {
	if err := e.setParent(parent); err != nil {
		e.logError(err).Msg("set parent")
	}
}

// SetParentById moves the entity under the entity with the given id.
func (e *Entity) SetParentById(id EntityId) {
	parent := e.scene.GetEntity(id)
	if parent == nil {
		e.logError(eris.Wrapf(ErrNilParent, "parent %d not found", id)).Msg("set parent")
		return
	}
	e.SetParent(parent)
}

// RemoveParent moves the entity back under the scene root. It does nothing for
// entities that already have no parent.
func (e *Entity) RemoveParent() {
	if e.isRoot() || !e.HasParent() {
		return
	}
	if err := e.setParent(e.scene.root); err != nil {
		e.logError(err).Msg("remove parent")
	}
}

func (e *Entity) setParent(parent *Entity) error {
	switch {
	case parent == nil:
		return ErrNilParent
	case e.isRoot():
		return eris.Wrap(ErrRootEntity, "set parent")
	case e.IsDestroyed() || parent.IsDestroyed():
		return eris.Wrap(ErrDestroyed, "set parent")
	case parent.scene != e.scene:
		return eris.Wrapf(ErrCrossScene, "parent %d", parent.id)
	case parent == e:
		return eris.Wrapf(ErrSelfParent, "entity %d", e.id)
	}

	e.detach()
	e.parent = parent
	parent.attachChild(e, e.IsActive())

	e.SetDirtyHierarchy(true)
	e.syncEnabled()
	e.scene.onHierarchyChanged()
	return nil
}

// SetActive sets the entity's own active flag. Deactivating moves the entity to
// its parent's inactive children and deactivates its components and those of
// every active descendant; activating reverses that. Descendants that are
// inactive themselves stay inactive. Setting the current value does nothing.
func (e *Entity) SetActive(active bool) {
	if err := e.setActive(active); err != nil {
		e.logError(err).Bool("active", active).Msg("set active")
	}
}

func (e *Entity) setActive(active bool) error {
	if e.isRoot() {
		return eris.Wrap(ErrRootEntity, "set active")
	}
	if e.IsDestroyed() {
		return eris.Wrap(ErrDestroyed, "set active")
	}

	e.mu.Lock()
	// queued requests compare against the flag when they are applied
	if e.processing {
		e.mailbox = append(e.mailbox, entityCommand{kind: cmdSetActive, active: active})
		e.mu.Unlock()
		return nil
	}
	if e.active == active {
		e.mu.Unlock()
		return nil
	}
	e.active = active
	e.mu.Unlock()

	if e.parent != nil {
		e.parent.moveChild(e, active)
	}
	e.scene.version.Add(1)
	e.syncEnabled()
	return nil
}

// syncEnabled brings the entity's components in line with its effective
// activity and cascades into a snapshot of the active children, since hooks
// run by the cascade may change the live lists. Calls made by the hooks are
// mailboxed and applied once the cascade below the entity has finished.
func (e *Entity) syncEnabled() {
	want := e.wantEnabled()

	e.mu.Lock()
	if e.processing {
		e.mailbox = append(e.mailbox, entityCommand{kind: cmdSyncEnabled})
		e.mu.Unlock()
		return
	}
	if e.enabled == want {
		e.mu.Unlock()
		return
	}
	e.enabled = want

	var transitions []*componentEntry
	e.components.ForEach(func(_ ComponentTypeId, entry *componentEntry) bool {
		switch {
		case !want && entry.state == StateActive, want && entry.state == StateInactive:
			transitions = append(transitions, entry)
		case !want && entry.state == StateUnloaded:
			entry.state = StateUnloadedInactive
		case want && entry.state == StateUnloadedInactive:
			entry.state = StateUnloaded
		}
		return true
	})
	// component mutators from other goroutines wait in the mailbox while the
	// hooks run, as they do during a ProcessComponents pass
	guarded := len(transitions) > 0
	if guarded {
		e.processing = true
		e.cascading = true
	}
	e.mu.Unlock()

	slices.SortFunc(transitions, func(a, b *componentEntry) int { return int(a.typ) - int(b.typ) })

	from, to := StateActive, StateInactive
	if want {
		from, to = StateInactive, StateActive
	}
	changed := 0
	for _, entry := range transitions {
		if want {
			entry.component.OnActivate(e)
		} else {
			entry.component.OnDeactivate(e)
		}

		e.mu.Lock()
		if current, ok := e.components.Get(entry.typ); ok && current == entry && entry.state == from {
			entry.state = to
			changed++
		}
		e.mu.Unlock()
	}

	var mailbox []entityCommand
	e.mu.Lock()
	if changed > 0 {
		e.recomputeMaskLocked()
	}
	mask := e.mask
	if guarded {
		mailbox = e.mailbox
		e.mailbox = nil
		e.processing = false
		e.cascading = false
	}
	e.mu.Unlock()

	if changed > 0 {
		e.scene.onEntityChanged(e, mask)
	}

	for _, child := range slices.Clone(e.children) {
		child.syncEnabled()
	}

	for _, cmd := range mailbox {
		cmd.apply(e)
	}
}

func (e *Entity) wantEnabled() bool {
	parentEnabled := true
	if e.parent != nil {
		parentEnabled = e.parent.IsActiveInHierarchy()
	}
	return e.IsActive() && parentEnabled
}

// detach removes the entity from its parent's child lists.
func (e *Entity) detach() {
	if e.parent == nil {
		return
	}
	e.parent.children = removeChild(e.parent.children, e)
	e.parent.inactiveChildren = removeChild(e.parent.inactiveChildren, e)
	e.parent = nil
}

func (e *Entity) attachChild(child *Entity, active bool) {
	if active {
		e.children = append(e.children, child)
	} else {
		e.inactiveChildren = append(e.inactiveChildren, child)
	}
}

func (e *Entity) moveChild(child *Entity, active bool) {
	e.children = removeChild(e.children, child)
	e.inactiveChildren = removeChild(e.inactiveChildren, child)
	e.attachChild(child, active)
}

func removeChild(list []*Entity, child *Entity) []*Entity {
	if i := slices.Index(list, child); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// subtree returns the entity followed by all of its descendants, depth first.
func (e *Entity) subtree() []*Entity {
	out := []*Entity{e}
	for _, child := range e.children {
		out = append(out, child.subtree()...)
	}
	for _, child := range e.inactiveChildren {
		out = append(out, child.subtree()...)
	}
	return out
}

// SetDirtyHierarchy sets or clears the dirty-hierarchy flag. Marking an entity
// dirty marks its ancestors up to the first one already dirty, and every
// descendant whatever its current flag.
func (e *Entity) SetDirtyHierarchy(dirty bool) {
	e.dirtyHierarchy.Store(dirty)
	if !dirty {
		return
	}
	if e.HasParent() {
		e.parent.propagateDirtyUp()
	}
	e.propagateDirtyDown()
}

// IsHierarchyDirty reports whether the dirty-hierarchy flag is set.
func (e *Entity) IsHierarchyDirty() bool {
	return e.dirtyHierarchy.Load()
}

// propagateDirtyUp marks e and its ancestors below the root, stopping at the
// first one already dirty. It returns the number of entities marked.
func (e *Entity) propagateDirtyUp() int {
	marked := 0
	for p := e; p != nil && !p.isRoot(); p = p.parent {
		if p.dirtyHierarchy.Load() {
			break
		}
		p.dirtyHierarchy.Store(true)
		marked++
	}
	return marked
}

// propagateDirtyDown marks every descendant of e and returns how many it visited.
func (e *Entity) propagateDirtyDown() int {
	visited := 0
	for _, list := range [][]*Entity{e.children, e.inactiveChildren} {
		for _, child := range list {
			child.dirtyHierarchy.Store(true)
			visited += 1 + child.propagateDirtyDown()
		}
	}
	return visited
}
