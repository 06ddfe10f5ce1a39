package ecs

import "github.com/rotisserie/eris"

// Structural misuse. Public mutators log these and leave the graph untouched.
var (
	ErrDuplicateComponent     = eris.New("component type already attached to entity")
	ErrComponentNotFound      = eris.New("component type not attached to entity")
	ErrComponentNotRegistered = eris.New("component type not registered")
	ErrCrossScene             = eris.New("entities belong to different scenes")
	ErrNilParent              = eris.New("parent is nil")
	ErrNilEntity              = eris.New("entity is nil")
	ErrSelfParent             = eris.New("entity cannot be its own parent")
	ErrRootEntity             = eris.New("operation not permitted on scene root")
	ErrEntityNotFound         = eris.New("entity not found")
	ErrEntityExists           = eris.New("entity id already in use")
	ErrDestroyed              = eris.New("entity has been destroyed")
	ErrLoadFailed             = eris.New("component failed to load")
	ErrSceneNotFound          = eris.New("scene not found")
)

// Registration errors, returned to the caller.
var (
	ErrTooManyComponentTypes  = eris.New("too many component types registered")
	ErrDuplicateComponentName = eris.New("component name already registered")
	ErrUnknownComponentName   = eris.New("unknown component name")
)
