package ecs

//go:generate go tool stringer -type=ComponentState -trimprefix=State

// ComponentState is the lifecycle state of a component attached to an entity.
//
//	Unloaded ---------load ok--------> Active <--+
//	   |                                 |        |
//	   +--load failed--> LoadFailed      v        |
//	   |                              Inactive ---+
//	UnloadedInactive --load ok---------^
//
// LoadFailed is terminal until the component is destroyed and added again.
type ComponentState uint8

const (
	StateUnloaded ComponentState = iota
	StateUnloadedInactive
	StateActive
	StateInactive
	StateLoadFailed
)

// Loaded reports whether the component's OnLoad succeeded and OnUnload has not run since.
func (s ComponentState) Loaded() bool {
	return s == StateActive || s == StateInactive
}

// Pending reports whether the component is waiting for a ProcessComponents pass.
func (s ComponentState) Pending() bool {
	return s == StateUnloaded || s == StateUnloadedInactive
}
