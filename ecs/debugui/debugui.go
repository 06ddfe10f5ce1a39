// Package debugui provides immediate-mode GUI integration for scenes using Dear ImGui.
// Windows are ordinary entities carrying an ImguiItem, so they follow the scene
// hierarchy: deactivating the parent of a set of windows hides all of them.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/scenery/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	ecs.BaseComponent
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem queries all active ImguiItem components and defers their render
// functions, so windows draw after every other system has run.
type ImguiSystem struct {
	Items      ecs.Query `ecs:"ImguiItem"`
	InputState ImguiInputState
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	io := imgui.CurrentIO()
	i.InputState.WantCaptureMouse = io.WantCaptureMouse()
	i.InputState.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for e := range i.Items.Iter() {
		item, ok := ecs.GetComponent[*ImguiItem](e)
		if !ok || item.Render == nil {
			continue
		}
		frame.Commands.Defer(item.Render)
	}
}
