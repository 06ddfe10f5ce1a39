package debugui

import (
	"reflect"
	"sync"

	"github.com/kamstrup/intmap"
	"github.com/plus3/scenery/ecs"
)

var baseComponentType = reflect.TypeFor[ecs.BaseComponent]()

// FieldInfo describes one exported field shown by the inspector.
type FieldInfo struct {
	Name      string
	Type      reflect.Type // element type when the field is a pointer
	Index     int
	Kind      reflect.Kind
	IsPointer bool
}

// ReflectionCache memoizes visible fields. Component layouts are keyed by their
// registry id; structs nested inside components are keyed by Go type.
type ReflectionCache struct {
	mu         sync.Mutex
	components *intmap.Map[ecs.ComponentTypeId, []FieldInfo]
	nested     map[reflect.Type][]FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{
		components: intmap.New[ecs.ComponentTypeId, []FieldInfo](16),
		nested:     make(map[reflect.Type][]FieldInfo),
	}
}

// ComponentFields returns the fields of the component type typ, whose struct
// type is t.
func (rc *ReflectionCache) ComponentFields(typ ecs.ComponentTypeId, t reflect.Type) []FieldInfo {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if fields, ok := rc.components.Get(typ); ok {
		return fields
	}
	fields := visibleFields(t)
	rc.components.Put(typ, fields)
	return fields
}

// StructFields returns the fields of a struct nested inside a component.
func (rc *ReflectionCache) StructFields(t reflect.Type) []FieldInfo {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if fields, ok := rc.nested[t]; ok {
		return fields
	}
	fields := visibleFields(t)
	rc.nested[t] = fields
	return fields
}

// Len returns the number of cached component layouts.
func (rc *ReflectionCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.components.Len()
}

// visibleFields lists the exported fields of t, leaving out the embedded
// BaseComponent.
func visibleFields(t reflect.Type) []FieldInfo {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var fields []FieldInfo
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() || (field.Anonymous && field.Type == baseComponentType) {
			continue
		}
		info := FieldInfo{Name: field.Name, Type: field.Type, Index: i}
		if field.Type.Kind() == reflect.Pointer {
			info.IsPointer = true
			info.Type = field.Type.Elem()
		}
		info.Kind = info.Type.Kind()
		fields = append(fields, info)
	}
	return fields
}

var globalReflectionCache = NewReflectionCache()
