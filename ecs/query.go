package ecs

import (
	"iter"
)

// Query selects the entities of a scene whose active components cover a mask.
// Results are cached and rebuilt when the scene version moves.
//
// Systems declare Query fields with an ecs tag listing component names, which
// the scheduler resolves on registration:
//
//	type MoverSystem struct {
//		Movers ecs.Query `ecs:"Position,Velocity"`
//	}
type Query struct {
	scene   *EntityScene
	mask    ComponentMask
	version uint64
	valid   bool
	cached  []*Entity
}

// NewQuery creates a query over scene for entities carrying every type of mask.
func NewQuery(scene *EntityScene, mask ComponentMask) *Query {
	q := &Query{}
	q.Init(scene, mask)
	return q
}

// Init initializes or re-initializes the query.
// Called by the Scheduler during system registration.
func (q *Query) Init(scene *EntityScene, mask ComponentMask) {
	q.scene = scene
	q.mask = mask
	q.valid = false
	q.cached = nil
}

// Mask returns the required component mask.
func (q *Query) Mask() ComponentMask {
	return q.mask
}

func (q *Query) refresh() {
	if q.scene == nil {
		return
	}
	version := q.scene.Version()
	if q.valid && version == q.version {
		return
	}

	// a fresh slice, iterators handed out earlier keep their own
	cached := make([]*Entity, 0, len(q.cached))
	for e := range q.scene.Entities() {
		if e.HasComponents(q.mask) {
			cached = append(cached, e)
		}
	}
	q.cached = cached
	q.version = version
	q.valid = true
}

// Iter returns an iterator over the matching entities in id order.
func (q *Query) Iter() iter.Seq[*Entity] {
	q.refresh()
	entities := q.cached

	return func(yield func(*Entity) bool) {
		for _, e := range entities {
			if e.IsDestroyed() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Count returns the number of matching entities.
func (q *Query) Count() int {
	q.refresh()
	return len(q.cached)
}
