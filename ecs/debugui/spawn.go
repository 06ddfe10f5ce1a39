package debugui

import (
	"github.com/plus3/scenery/ecs"
)

// RegisterDebugUIComponents registers the component types used by this package.
// ImguiSystem resolves its query by the "ImguiItem" name.
func RegisterDebugUIComponents(registry *ecs.ComponentRegistry) error {
	_, err := ecs.RegisterComponent[*ImguiItem](registry, "ImguiItem")
	return err
}

// SpawnDebugUI creates a "debugui" entity in scene with one child window per
// debug tool and returns it. SetActive(false) on the returned entity hides
// every window.
func SpawnDebugUI(scene *ecs.EntityScene) *ecs.Entity {
	root := scene.CreateEntity("debugui")
	if root == nil {
		return nil
	}

	outliner := NewSceneOutliner(100)
	inspector := NewComponentInspector()
	types := NewTypeViewer()
	perf := NewPerformanceStats(120)
	queries := NewQueryDebugger()
	timer := NewFrameTimer()

	spawnWindow(scene, root, "outliner", func() { outliner.Render(scene) })
	spawnWindow(scene, root, "inspector", func() { inspector.Render(scene, outliner.GetSelectedEntity()) })
	spawnWindow(scene, root, "types", func() { types.Render(scene) })
	spawnWindow(scene, root, "performance", func() { perf.Render(scene, timer.GetDeltaTime()) })
	spawnWindow(scene, root, "queries", func() { queries.Render(scene) })
	return root
}

func spawnWindow(scene *ecs.EntityScene, parent *ecs.Entity, name string, render func()) *ecs.Entity {
	e := scene.CreateEntity(name)
	e.SetParent(parent)
	e.AddComponent(&ImguiItem{Render: render})
	return e
}
