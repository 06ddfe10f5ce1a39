package ecs

import "weak"

// EntityRef is a stable handle to an entity that does not keep it alive.
// Destroying the entity invalidates every ref to it.
type EntityRef struct {
	Id     EntityId
	entity weak.Pointer[Entity]
}

// CreateEntityRef returns the ref for the entity with the given id, or nil if
// there is no such entity. Repeated calls return the same ref while it is alive.
func (s *EntityScene) CreateEntityRef(id EntityId) *EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities.Get(id)
	if !ok {
		return nil
	}
	if ptr, ok := s.refs.Get(id); ok {
		if ref := ptr.Value(); ref != nil {
			return ref
		}
		s.refs.Del(id)
	}

	ref := &EntityRef{Id: id, entity: weak.Make(e)}
	s.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the entity ref points to, if it still exists.
func (s *EntityScene) ResolveEntityRef(ref *EntityRef) (*Entity, bool) {
	if ref == nil || ref.Id == InvalidEntityId {
		return nil, false
	}
	e := ref.entity.Value()
	if e == nil || e.IsDestroyed() {
		return nil, false
	}
	return e, true
}

// InvalidateEntityRef detaches ref from its entity. It reports whether ref was valid.
func (s *EntityScene) InvalidateEntityRef(ref *EntityRef) bool {
	if ref == nil || ref.Id == InvalidEntityId {
		return false
	}
	s.mu.Lock()
	if ptr, ok := s.refs.Get(ref.Id); ok && ptr.Value() == ref {
		s.refs.Del(ref.Id)
	}
	s.mu.Unlock()

	ref.Id = InvalidEntityId
	ref.entity = weak.Pointer[Entity]{}
	return true
}

func (s *EntityScene) invalidateRef(id EntityId) {
	s.mu.Lock()
	ptr, ok := s.refs.Get(id)
	if ok {
		s.refs.Del(id)
	}
	s.mu.Unlock()

	if ref := ptr.Value(); ok && ref != nil {
		ref.Id = InvalidEntityId
		ref.entity = weak.Pointer[Entity]{}
	}
}
