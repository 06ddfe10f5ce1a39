package ecs

import (
	"reflect"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// ComponentTypeId is the stable identity of a registered component type.
type ComponentTypeId uint8

// ComponentTypeInfo describes a registered component type.
type ComponentTypeInfo struct {
	Id      ComponentTypeId
	Name    string
	Mask    ComponentMask
	Type    reflect.Type
	factory func() Component
}

// ComponentRegistry maps component types to ids and mask bits. Each SystemModule
// owns one, so independent modules never share type tables. Register every type
// before creating scenes; lookups afterwards are read-only.
type ComponentRegistry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*ComponentTypeInfo
	byName map[string]*ComponentTypeInfo
	types  []*ComponentTypeInfo
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		byType: make(map[reflect.Type]*ComponentTypeInfo),
		byName: make(map[string]*ComponentTypeInfo),
	}
}

// RegisterComponent registers T under name and returns its id. Registering the
// same type twice returns the existing id.
func RegisterComponent[T Component](r *ComponentRegistry, name string) (ComponentTypeId, error) {
	t := componentKey(reflect.TypeFor[T]())
	return r.register(t, name, func() Component {
		return newComponent[T]()
	})
}

func newComponent[T Component]() Component {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Ptr {
		return reflect.New(t.Elem()).Interface().(Component)
	}
	var zero T
	return zero
}

func (r *ComponentRegistry) register(t reflect.Type, name string, factory func() Component) (ComponentTypeId, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byType[t]; ok {
		return info.Id, nil
	}
	if name == "" {
		name = t.String()
	}
	if _, ok := r.byName[name]; ok {
		return 0, eris.Wrapf(ErrDuplicateComponentName, "register %s as %q", t, name)
	}
	if len(r.types) >= MaxComponentTypes {
		return 0, eris.Wrapf(ErrTooManyComponentTypes, "register %s (limit %d)", t, MaxComponentTypes)
	}

	id := ComponentTypeId(len(r.types))
	info := &ComponentTypeInfo{
		Id:      id,
		Name:    name,
		Mask:    MaskOf(id),
		Type:    t,
		factory: factory,
	}
	r.byType[t] = info
	r.byName[name] = info
	r.types = append(r.types, info)
	return id, nil
}

// TypeFor returns the id registered for T.
func TypeFor[T Component](r *ComponentRegistry) (ComponentTypeId, bool) {
	return r.lookupType(componentKey(reflect.TypeFor[T]()))
}

// TypeOf returns the id registered for the dynamic type of component.
func (r *ComponentRegistry) TypeOf(component Component) (ComponentTypeId, bool) {
	if component == nil {
		return 0, false
	}
	return r.lookupType(componentKey(reflect.TypeOf(component)))
}

// Lookup returns the id registered under name.
func (r *ComponentRegistry) Lookup(name string) (ComponentTypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return info.Id, true
}

// Mask returns the mask bit of a registered type, or an empty mask for unknown ids.
func (r *ComponentRegistry) Mask(id ComponentTypeId) ComponentMask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.types) {
		return 0
	}
	return r.types[id].Mask
}

// MaskOfNames returns the combined mask of the named types.
func (r *ComponentRegistry) MaskOfNames(names ...string) (ComponentMask, error) {
	var mask ComponentMask
	for _, name := range names {
		id, ok := r.Lookup(name)
		if !ok {
			return 0, eris.Wrapf(ErrUnknownComponentName, "%q", name)
		}
		mask = mask.Set(id)
	}
	return mask, nil
}

// Name returns the registered name of id.
func (r *ComponentRegistry) Name(id ComponentTypeId) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.types) {
		return ""
	}
	return r.types[id].Name
}

// Create builds a fresh component of the named type through its factory.
func (r *ComponentRegistry) Create(name string) (Component, error) {
	r.mu.RLock()
	info, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrUnknownComponentName, "create %q", name)
	}
	return info.factory(), nil
}

// Types returns the registered types ordered by id.
func (r *ComponentRegistry) Types() []ComponentTypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ComponentTypeInfo, 0, len(r.types))
	for _, info := range r.types {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Len returns the number of registered types.
func (r *ComponentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func (r *ComponentRegistry) lookupType(t reflect.Type) (ComponentTypeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[t]
	if !ok {
		return 0, false
	}
	return info.Id, true
}

// componentKey strips one level of pointer so *Camera and Camera share an identity.
func componentKey(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
