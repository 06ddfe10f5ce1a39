package ecs

import (
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// ComponentPending is published when a component is queued for a ProcessComponents pass.
type ComponentPending struct {
	Entity *Entity
	Type   ComponentTypeId
}

// ComponentAdded is published when a queued component finished loading.
type ComponentAdded struct {
	Entity *Entity
	Type   ComponentTypeId
}

// ComponentRemoving is published before a component's deactivate/unload hooks run.
type ComponentRemoving struct {
	Entity *Entity
	Type   ComponentTypeId
}

// ComponentRemoved is published after a component has been detached.
type ComponentRemoved struct {
	Entity *Entity
	Type   ComponentTypeId
}

// EntityChanged is published after a batch of component transitions changed an entity.
type EntityChanged struct {
	Entity *Entity
	Mask   ComponentMask
}

// HierarchyChanged is published when the parent/child structure of a scene changed.
type HierarchyChanged struct {
	Scene *EntityScene
}

// EntityNameChanged is published after Entity.SetName.
type EntityNameChanged struct {
	Entity *Entity
	Name   string
}

// EntityCreated is published after an entity has been added to its scene.
type EntityCreated struct {
	Entity *Entity
}

// EntityDestroying is published before an entity and its subtree are destroyed.
type EntityDestroying struct {
	Entity *Entity
}

// SceneCreated is published after SystemModule.CreateScene.
type SceneCreated struct {
	Scene *EntityScene
}

// SceneDestroying is published before a scene and all of its entities are destroyed.
type SceneDestroying struct {
	SceneId uuid.UUID
	Scene   *EntityScene
}

// Subscription identifies a handler registered with Subscribe.
type Subscription struct {
	eventType reflect.Type
	id        uint64
}

type eventHandler struct {
	id uint64
	fn any
}

// EventBus dispatches typed events to handlers synchronously, in subscription
// order. Publish may be called from several goroutines at once; handlers must be
// safe for that when the scheduler runs with more than one worker.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]eventHandler
	nextId   uint64
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[reflect.Type][]eventHandler),
	}
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) Subscription {
	t := reflect.TypeFor[T]()

	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.nextId++
	bus.handlers[t] = append(bus.handlers[t], eventHandler{id: bus.nextId, fn: handler})
	return Subscription{eventType: t, id: bus.nextId}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (bus *EventBus) Unsubscribe(sub Subscription) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	hs := bus.handlers[sub.eventType]
	for i, h := range hs {
		if h.id == sub.id {
			// copy so an in-flight Publish keeps iterating its own slice
			next := make([]eventHandler, 0, len(hs)-1)
			next = append(next, hs[:i]...)
			next = append(next, hs[i+1:]...)
			bus.handlers[sub.eventType] = next
			return
		}
	}
}

// Publish calls every handler subscribed to T with event.
func Publish[T any](bus *EventBus, event T) {
	bus.mu.RLock()
	hs := bus.handlers[reflect.TypeFor[T]()]
	bus.mu.RUnlock()

	for _, h := range hs {
		h.fn.(func(T))(event)
	}
}
