package ecs

// System represents per-tick behavior over the entities of one scene.
// Systems can declare tagged Query fields, initialized when the system is
// added to a scene, and keep their own state between ticks.
type System interface {
	Execute(frame *UpdateFrame)
}
