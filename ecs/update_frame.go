package ecs

// UpdateFrame is handed to every system on each tick.
type UpdateFrame struct {
	DeltaTime float64
	Scene     *EntityScene
	// Commands is the scene's deferred buffer, flushed after the last system.
	Commands *Commands
}

func newUpdateFrame(dt float64, scene *EntityScene) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Scene:     scene,
		Commands:  scene.commands,
	}
}
